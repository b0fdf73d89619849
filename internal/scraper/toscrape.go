package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const (
	tsBlockSel  = "div.quote"
	tsTextSel   = "span.text"
	tsAuthorSel = "small.author"
	tsTagSel    = "a.tag"
)

// DefaultBaseURL is the site the scraper targets unless configured otherwise.
const DefaultBaseURL = "http://quotes.toscrape.com"

// ErrInvalidPage is reported for page indices below 1.
var ErrInvalidPage = errors.New("page index must be positive")

// ToScrapeScraper fetches and parses the paginated quote listings of
// quotes.toscrape.com (or any site with the same markup).
//
// Every listing page is addressed as {BaseURL}/page/{n}/ and holds a series
// of div.quote blocks, each with a span.text body, a small.author name and
// zero or more a.tag links.
type ToScrapeScraper struct {
	Client  *Client // HTTP client used to fetch pages.
	BaseURL string  // Site root, without the /page/{n}/ suffix.
}

// NewToScrapeScraper creates a scraper for baseURL. An empty baseURL
// selects DefaultBaseURL.
//
// Example:
//
//	client := scraper.NewClient(config.HTTPConfig{Timeout: 10 * time.Second, UserAgent: "MyScraperBot/1.0"})
//	ts := scraper.NewToScrapeScraper(client, "")
func NewToScrapeScraper(c *Client, baseURL string) *ToScrapeScraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ToScrapeScraper{
		Client:  c,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

// PageURL returns the listing URL for a 1-based page index.
func (s *ToScrapeScraper) PageURL(page int) string {
	return fmt.Sprintf("%s/page/%d/", s.BaseURL, page)
}

// FetchPage downloads and parses one listing page.
//
// It never returns an error to the caller: transport failures, non-2xx
// statuses and unparsable bodies are logged and reported as OutcomeFailed
// with PageResult.Err set. A page that parses but holds no usable quote
// is OutcomeEmpty. Records are returned in document order.
func (s *ToScrapeScraper) FetchPage(ctx context.Context, page int) PageResult {
	url := s.PageURL(page)
	result := PageResult{Page: page, URL: url}

	if page < 1 {
		result.Outcome = OutcomeFailed
		result.Err = fmt.Errorf("page %d: %w", page, ErrInvalidPage)
		return result
	}

	response, err := s.Client.GetWithRetry(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			slog.DebugContext(ctx, "page fetch canceled", "page", page, "url", url, "err", err)
		} else {
			slog.ErrorContext(ctx, "error scraping page", "page", page, "url", url, "err", err)
		}
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}

	records, skipped, err := ParseRecords(bytes.NewReader(response.Body), response.ContentType)
	if err != nil {
		slog.ErrorContext(ctx, "error parsing page", "page", page, "url", url, "err", err)
		result.Outcome = OutcomeFailed
		result.Err = err
		return result
	}
	if skipped > 0 {
		slog.WarnContext(ctx, "skipped malformed quotes", "page", page, "skipped", skipped)
	}

	result.Records = records
	result.Skipped = skipped
	if len(records) == 0 {
		result.Outcome = OutcomeEmpty
	} else {
		result.Outcome = OutcomeRecords
	}
	return result
}

// ParseRecords extracts every quote block from an HTML document.
//
// The body is decoded to UTF-8 according to contentType (and any <meta>
// charset declaration) before parsing. Blocks missing the text or the
// author element are skipped and counted in the second return value.
// Each record is stamped with the UTC time at which it was extracted.
func ParseRecords(r io.Reader, contentType string) ([]Record, int, error) {
	utf8Body, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, 0, fmt.Errorf("decode body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, 0, fmt.Errorf("parse html: %w", err)
	}

	out := make([]Record, 0, 10)
	skipped := 0

	doc.Find(tsBlockSel).Each(func(i int, blk *goquery.Selection) {
		textSel := blk.Find(tsTextSel).First()
		authorSel := blk.Find(tsAuthorSel).First()
		if textSel.Length() == 0 || authorSel.Length() == 0 {
			slog.Warn("skipping quote without text or author",
				"index", i,
				"has_text", textSel.Length() > 0,
				"has_author", authorSel.Length() > 0,
			)
			skipped++
			return
		}

		// tags: order and duplicates preserved
		tags := make([]string, 0, 4)
		blk.Find(tsTagSel).Each(func(_ int, a *goquery.Selection) {
			t := strings.TrimSpace(a.Text())
			if t != "" {
				tags = append(tags, t)
			}
		})

		out = append(out, Record{
			Text:       strings.TrimSpace(textSel.Text()),
			Author:     strings.TrimSpace(authorSel.Text()),
			Tags:       tags,
			CapturedAt: time.Now().UTC(),
		})
	})

	return out, skipped, nil
}
