package scraper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GeorgiosLymperis/quotes-scraper/internal/config"
)

func readHTML(t *testing.T, path string) []byte {
	t.Helper()
	html, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Error at reading html: %v", err)
	}
	return html
}

func newTestClient(retries int) *Client {
	return NewClient(config.HTTPConfig{
		Timeout:     3 * time.Second,
		UserAgent:   "TestAgent/1.0",
		Retries:     retries,
		BaseBackoff: 5 * time.Millisecond,
		MaxBackoff:  10 * time.Millisecond,
	})
}

// servePages serves fixture bodies keyed by request path; unknown paths get 404.
func servePages(t *testing.T, pages map[string][]byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestToScrapePage(t *testing.T) {
	html := readHTML(t, filepath.Join("testdata", "toscrape_page.html"))
	server := servePages(t, map[string][]byte{"/page/1/": html})

	s := NewToScrapeScraper(newTestClient(0), server.URL+"/")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	before := time.Now().UTC()
	res := s.FetchPage(ctx, 1)
	after := time.Now().UTC()

	if res.Outcome != OutcomeRecords {
		t.Fatalf("outcome = %v (err %v), want records", res.Outcome, res.Err)
	}
	if res.URL != server.URL+"/page/1/" {
		t.Errorf("url = %q, want %q", res.URL, server.URL+"/page/1/")
	}
	if len(res.Records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(res.Records))
	}
	if res.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", res.Skipped)
	}

	// --- record #1 checks
	r1 := res.Records[0]
	wantQ1 := "“The world as we have created it is a process of our thinking. It cannot be changed without changing our thinking.”"
	if r1.Text != wantQ1 {
		t.Errorf("text[0] = %q, want %q", r1.Text, wantQ1)
	}
	if r1.Author != "Albert Einstein" {
		t.Errorf("author[0] = %q, want Albert Einstein", r1.Author)
	}
	wantTags := []string{"change", "deep-thoughts", "thinking", "world"}
	if strings.Join(r1.Tags, "|") != strings.Join(wantTags, "|") {
		t.Errorf("tags[0] = %#v, want %#v", r1.Tags, wantTags)
	}

	// --- record #2: whitespace trimmed, no tags
	r2 := res.Records[1]
	if r2.Text != "“It is better to be hated for what you are than to be loved for what you are not.”" {
		t.Errorf("text[1] = %q", r2.Text)
	}
	if r2.Author != "André Gide" {
		t.Errorf("author[1] = %q, want André Gide", r2.Author)
	}
	if r2.Tags == nil || len(r2.Tags) != 0 {
		t.Errorf("tags[1] = %#v, want empty non-nil slice", r2.Tags)
	}

	// --- record #3: duplicate tags kept in order
	r3 := res.Records[2]
	if got := strings.Join(r3.Tags, "|"); got != "humor|obvious|humor" {
		t.Errorf("tags[2] = %q, want humor|obvious|humor", got)
	}

	for i, r := range res.Records {
		if r.CapturedAt.Before(before) || r.CapturedAt.After(after) {
			t.Errorf("capturedAt[%d] = %v, want within [%v, %v]", i, r.CapturedAt, before, after)
		}
		if r.CapturedAt.Location() != time.UTC {
			t.Errorf("capturedAt[%d] not UTC", i)
		}
	}
	if res.Records[2].CapturedAt.Before(res.Records[0].CapturedAt) {
		t.Errorf("capture times not monotonic in document order")
	}
}

func TestToScrapeSkipsMalformed(t *testing.T) {
	html := readHTML(t, filepath.Join("testdata", "toscrape_malformed.html"))
	server := servePages(t, map[string][]byte{"/page/3/": html})

	s := NewToScrapeScraper(newTestClient(0), server.URL)
	res := s.FetchPage(context.Background(), 3)

	if res.Outcome != OutcomeRecords {
		t.Fatalf("outcome = %v, want records", res.Outcome)
	}
	if len(res.Records) != 2 || res.Skipped != 2 {
		t.Fatalf("records/skipped = %d/%d, want 2/2", len(res.Records), res.Skipped)
	}
	if res.Records[0].Author != "Albert Einstein" || res.Records[1].Author != "Thomas A. Edison" {
		t.Errorf("authors = %q, %q", res.Records[0].Author, res.Records[1].Author)
	}
	// blank tag labels are dropped
	if got := strings.Join(res.Records[1].Tags, "|"); got != "edison|failure" {
		t.Errorf("tags[1] = %q, want edison|failure", got)
	}
}

func TestToScrapeEmptyPage(t *testing.T) {
	html := readHTML(t, filepath.Join("testdata", "toscrape_empty.html"))
	server := servePages(t, map[string][]byte{"/page/11/": html})

	s := NewToScrapeScraper(newTestClient(0), server.URL)
	res := s.FetchPage(context.Background(), 11)

	if res.Outcome != OutcomeEmpty {
		t.Fatalf("outcome = %v, want empty", res.Outcome)
	}
	if len(res.Records) != 0 || res.Err != nil {
		t.Errorf("records = %d, err = %v; want 0, nil", len(res.Records), res.Err)
	}
}

func TestToScrapeNotFound(t *testing.T) {
	server := servePages(t, map[string][]byte{})

	s := NewToScrapeScraper(newTestClient(0), server.URL)
	res := s.FetchPage(context.Background(), 1)

	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", res.Outcome)
	}
	var se *StatusError
	if !errors.As(res.Err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("err = %v, want 404 StatusError", res.Err)
	}
	if len(res.Records) != 0 {
		t.Errorf("records = %d, want 0", len(res.Records))
	}
}

func TestToScrapeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	s := NewToScrapeScraper(newTestClient(0), url)
	res := s.FetchPage(context.Background(), 1)

	if res.Outcome != OutcomeFailed || res.Err == nil {
		t.Fatalf("outcome = %v, err = %v; want failed with error", res.Outcome, res.Err)
	}
	if len(res.Records) != 0 {
		t.Errorf("records = %d, want 0", len(res.Records))
	}
}

// captureLogs routes the default slog logger into a buffer for one test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestToScrapeCanceledIsNotAnError(t *testing.T) {
	html := readHTML(t, filepath.Join("testdata", "toscrape_page.html"))
	server := servePages(t, map[string][]byte{"/page/1/": html})
	logs := captureLogs(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewToScrapeScraper(newTestClient(0), server.URL)
	res := s.FetchPage(ctx, 1)

	if res.Outcome != OutcomeFailed || !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("outcome = %v, err = %v; want failed with context.Canceled", res.Outcome, res.Err)
	}
	if strings.Contains(logs.String(), "level=ERROR") {
		t.Errorf("cancellation logged as error:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "page fetch canceled") {
		t.Errorf("missing debug line for cancellation:\n%s", logs.String())
	}
}

func TestToScrapeFailureIsLoggedAsError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	logs := captureLogs(t)

	s := NewToScrapeScraper(newTestClient(0), url)
	s.FetchPage(context.Background(), 1)

	if !strings.Contains(logs.String(), "level=ERROR") {
		t.Errorf("transport failure not logged as error:\n%s", logs.String())
	}
}

func TestToScrapeInvalidPage(t *testing.T) {
	s := NewToScrapeScraper(newTestClient(0), "http://127.0.0.1:1")
	res := s.FetchPage(context.Background(), 0)
	if res.Outcome != OutcomeFailed || !errors.Is(res.Err, ErrInvalidPage) {
		t.Errorf("outcome = %v, err = %v; want failed with ErrInvalidPage", res.Outcome, res.Err)
	}
}

func TestNewToScrapeScraperDefaults(t *testing.T) {
	s := NewToScrapeScraper(nil, "")
	if s.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", s.BaseURL, DefaultBaseURL)
	}
	if got := s.PageURL(4); got != "http://quotes.toscrape.com/page/4/" {
		t.Errorf("PageURL(4) = %q", got)
	}
}

func TestParseRecordsDecodesCharset(t *testing.T) {
	// "André" and "Café" encoded as ISO-8859-1
	body := "<html><body><div class=\"quote\"><span class=\"text\">Caf\xe9</span>" +
		"<small class=\"author\">Andr\xe9 Gide</small><a class=\"tag\">caf\xe9s</a></div></body></html>"

	records, skipped, err := ParseRecords(strings.NewReader(body), "text/html; charset=iso-8859-1")
	if err != nil {
		t.Fatalf("ParseRecords error: %v", err)
	}
	if skipped != 0 || len(records) != 1 {
		t.Fatalf("records/skipped = %d/%d, want 1/0", len(records), skipped)
	}
	if records[0].Text != "Café" || records[0].Author != "André Gide" || records[0].Tags[0] != "cafés" {
		t.Errorf("record = %+v", records[0])
	}
}
