package collector

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GeorgiosLymperis/quotes-scraper/internal/config"
)

// TagSeparator joins a record's tags into the single CSV tags field.
// A tag that itself contains ", " cannot be recovered from the CSV; use the
// JSON export when tags must round-trip exactly.
const TagSeparator = ", "

// CSVHeader is the header row written by ExportCSV.
var CSVHeader = []string{"text", "author", "tags", "scraped_at"}

// ErrDuplicateTarget is returned by ExportAll when two formats share a path.
var ErrDuplicateTarget = errors.New("two export formats share one path")

// Targets holds the output paths for ExportAll. Empty paths are skipped.
type Targets struct {
	CSV   string
	JSON  string
	JSONL string
}

// NewTargets resolves the configured file names against the output directory.
func NewTargets(out config.OutputConfig) Targets {
	resolve := func(name string) string {
		if name == "" {
			return ""
		}
		return filepath.Join(out.Dir, name)
	}
	return Targets{
		CSV:   resolve(out.CSV),
		JSON:  resolve(out.JSON),
		JSONL: resolve(out.JSONL),
	}
}

// ExportAll writes every configured target concurrently. The Collection is
// only read. Writing nothing for an empty Collection is not an error.
func ExportAll(c Collection, t Targets) error {
	if err := t.check(); err != nil {
		return err
	}
	if len(c) == 0 {
		slog.Warn("no quotes to export")
		return nil
	}

	var g errgroup.Group
	run := func(path string, export func(string, Collection) (bool, error)) {
		if path == "" {
			return
		}
		g.Go(func() error {
			_, err := export(path, c)
			return err
		})
	}
	run(t.CSV, ExportCSV)
	run(t.JSON, ExportJSON)
	run(t.JSONL, ExportJSONL)
	return g.Wait()
}

// check rejects targets where two formats would write the same file.
func (t Targets) check() error {
	seen := make(map[string]string, 3)
	for _, target := range []struct{ format, path string }{
		{"csv", t.CSV}, {"json", t.JSON}, {"jsonl", t.JSONL},
	} {
		if target.path == "" {
			continue
		}
		path := filepath.Clean(target.path)
		if other, ok := seen[path]; ok {
			return fmt.Errorf("%s and %s at %s: %w", other, target.format, path, ErrDuplicateTarget)
		}
		seen[path] = target.format
	}
	return nil
}

// ExportCSV writes one row per record with columns text, author, tags,
// scraped_at. Tags are joined with TagSeparator. It reports whether a file
// was written; an empty Collection is a no-op.
func ExportCSV(path string, c Collection) (bool, error) {
	if len(c) == 0 {
		slog.Warn("no quotes to export", "path", path)
		return false, nil
	}

	err := writeFile(path, func(w *bufio.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(CSVHeader); err != nil {
			return err
		}
		for _, r := range c {
			row := []string{
				r.Text,
				r.Author,
				strings.Join(r.Tags, TagSeparator),
				r.CapturedAt.Format(time.RFC3339Nano),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
	if err != nil {
		return false, fmt.Errorf("export csv %s: %w", path, err)
	}

	slog.Info("exported quotes", "format", "csv", "count", len(c), "path", path)
	return true, nil
}

// ExportJSON writes the Collection as an indented JSON array. Non-ASCII and
// HTML characters are written literally and tags stay arrays.
func ExportJSON(path string, c Collection) (bool, error) {
	if len(c) == 0 {
		slog.Warn("no quotes to export", "path", path)
		return false, nil
	}

	err := writeFile(path, func(w *bufio.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(withTags(c))
	})
	if err != nil {
		return false, fmt.Errorf("export json %s: %w", path, err)
	}

	slog.Info("exported quotes", "format", "json", "count", len(c), "path", path)
	return true, nil
}

// ExportJSONL writes one JSON object per line.
func ExportJSONL(path string, c Collection) (bool, error) {
	if len(c) == 0 {
		slog.Warn("no quotes to export", "path", path)
		return false, nil
	}

	err := writeFile(path, func(w *bufio.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, record := range withTags(c) {
			if err := enc.Encode(record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("export jsonl %s: %w", path, err)
	}

	slog.Info("exported quotes", "format", "jsonl", "count", len(c), "path", path)
	return true, nil
}

// writeFile creates path (and its parent directories) and hands a buffered
// writer to fill. The file is flushed and closed before returning.
func writeFile(path string, fill func(w *bufio.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(f)
	if err := fill(writer); err != nil {
		f.Close()
		return err
	}
	if err := writer.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// withTags returns c with nil tag lists replaced by empty ones, so every
// record serializes "tags": [].
func withTags(c Collection) Collection {
	out := make(Collection, len(c))
	for i, r := range c {
		if r.Tags == nil {
			r.Tags = []string{}
		}
		out[i] = r
	}
	return out
}
