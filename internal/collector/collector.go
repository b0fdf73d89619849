// Package collector drives the page fetcher across a paginated listing and
// turns the accumulated records into files and summary statistics.
//
// The collected records are returned to the caller as a Collection value;
// exports and statistics take that value as an argument, so nothing here
// holds scrape state between calls.
package collector

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/GeorgiosLymperis/quotes-scraper/internal/scraper"
)

// Collection is the ordered sequence of records gathered by one scrape:
// page-major, document order within a page. Duplicates are kept.
type Collection []scraper.Record

// PageFetcher fetches one listing page. *scraper.ToScrapeScraper satisfies it.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) scraper.PageResult
}

// StopReason tells why ScrapeAll returned.
type StopReason int

const (
	StopMaxPages StopReason = iota
	StopEmptyPage
	StopFetchFailed
	StopCanceled
)

func (r StopReason) String() string {
	switch r {
	case StopMaxPages:
		return "max pages reached"
	case StopEmptyPage:
		return "empty page"
	case StopFetchFailed:
		return "fetch failed"
	case StopCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Report summarizes a ScrapeAll run.
type Report struct {
	Pages    int // pages that contributed records
	LastPage int // last page index requested, 0 if none
	Stop     StopReason
	Err      error // fetch error for StopFetchFailed, ctx error for StopCanceled
}

// Collector runs the pagination loop.
type Collector struct {
	fetcher  PageFetcher
	delay    time.Duration
	progress io.Writer

	// sleep waits between pages; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Collector that waits delay between consecutive pages and
// prints progress lines to progress (io.Discard when nil).
func New(fetcher PageFetcher, delay time.Duration, progress io.Writer) *Collector {
	if progress == nil {
		progress = io.Discard
	}
	return &Collector{
		fetcher:  fetcher,
		delay:    max(delay, 0),
		progress: progress,
		sleep:    wait,
	}
}

// ScrapeAll fetches pages 1..maxPages in order and returns every record found.
//
// The loop stops at the first page that yields no records, since the source
// has no explicit last-page marker. A failed fetch also stops the loop, but
// is reported as StopFetchFailed so callers can tell it apart from the end of
// the listing. Between pages the collector waits for the configured delay;
// there is no wait after the final page. maxPages <= 0 fetches nothing.
func (c *Collector) ScrapeAll(ctx context.Context, maxPages int) (Collection, Report) {
	all := make(Collection, 0)
	report := Report{Stop: StopMaxPages}

	if maxPages <= 0 {
		fmt.Fprintln(c.progress, "Nothing to scrape: max pages is 0.")
		return all, report
	}

	fmt.Fprintf(c.progress, "Starting to scrape %d pages...\n", maxPages)

	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			report.Stop, report.Err = StopCanceled, err
			break
		}

		fmt.Fprintf(c.progress, "Scraping page %d...\n", page)
		report.LastPage = page
		res := c.fetcher.FetchPage(ctx, page)

		if res.Outcome == scraper.OutcomeFailed {
			if ctx.Err() != nil {
				report.Stop, report.Err = StopCanceled, ctx.Err()
				break
			}
			fmt.Fprintf(c.progress, "Page %d failed: %v. Stopping.\n", page, res.Err)
			report.Stop, report.Err = StopFetchFailed, res.Err
			break
		}
		if len(res.Records) == 0 {
			fmt.Fprintf(c.progress, "No quotes found on page %d. Stopping.\n", page)
			report.Stop = StopEmptyPage
			break
		}

		all = append(all, res.Records...)
		report.Pages++
		fmt.Fprintf(c.progress, "Found %d quotes on page %d\n", len(res.Records), page)

		if page < maxPages {
			if err := c.sleep(ctx, c.delay); err != nil {
				report.Stop, report.Err = StopCanceled, err
				break
			}
		}
	}

	fmt.Fprintf(c.progress, "\nTotal quotes scraped: %d\n", len(all))
	slog.Debug("scrape finished",
		"pages", report.Pages,
		"last_page", report.LastPage,
		"stop", report.Stop.String(),
		"quotes", len(all),
	)
	return all, report
}

// wait sleeps for d or until ctx is canceled.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
