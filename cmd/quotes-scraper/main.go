package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GeorgiosLymperis/quotes-scraper/internal/collector"
	"github.com/GeorgiosLymperis/quotes-scraper/internal/config"
	"github.com/GeorgiosLymperis/quotes-scraper/internal/logging"
	"github.com/GeorgiosLymperis/quotes-scraper/internal/scraper"
)

// main scrapes quotes.toscrape.com page by page, exports the quotes and
// prints summary statistics. Settings come from ./configs/config.yaml and
// QUOTES_* environment variables (e.g. QUOTES_SCRAPER_MAX_PAGES=10).
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(os.Stderr, "info")
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logging.Setup(os.Stderr, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		slog.Error("run error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	client := scraper.NewClient(cfg.HTTP)
	s := scraper.NewToScrapeScraper(client, cfg.Scraper.BaseURL)
	c := collector.New(s, cfg.Scraper.Delay, out)

	quotes, report := c.ScrapeAll(ctx, cfg.Scraper.MaxPages)
	if report.Stop == collector.StopFetchFailed {
		slog.Warn("scrape ended on a failed page; results may be incomplete",
			"page", report.LastPage, "err", report.Err)
	}

	// Exports run even after an interrupt so the collected quotes are kept.
	if err := collector.ExportAll(quotes, collector.NewTargets(cfg.Output)); err != nil {
		return err
	}

	printStatistics(out, collector.ComputeStatistics(quotes))
	return nil
}

func printStatistics(out io.Writer, stats *collector.Statistics) {
	fmt.Fprintln(out, "\n=== Scraping Statistics ===")
	if stats == nil {
		fmt.Fprintln(out, "No quotes collected.")
		return
	}
	for _, line := range stats.Lines() {
		fmt.Fprintln(out, line)
	}
}
