package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/GeorgiosLymperis/quotes-scraper/internal/collector"
	"github.com/GeorgiosLymperis/quotes-scraper/internal/config"
	"github.com/GeorgiosLymperis/quotes-scraper/internal/logging"
	"github.com/GeorgiosLymperis/quotes-scraper/internal/scraper"
)

// main runs the export and statistics path over built-in sample quotes,
// without touching the network. Files land in the configured output dir
// with a "demo_" prefix.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup(os.Stderr, "info")
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logging.Setup(os.Stderr, cfg.Log.Level)

	if err := run(cfg.Output, os.Stdout); err != nil {
		slog.Error("demo failed", "err", err)
		os.Exit(1)
	}
}

func run(out config.OutputConfig, w io.Writer) error {
	quotes := sampleQuotes(time.Now().UTC())

	fmt.Fprintln(w, "=== WEB SCRAPER DEMO ===")
	fmt.Fprintln(w, "(Using sample data - in production, this would scrape from the web)")
	fmt.Fprintf(w, "\nLoaded %d sample quotes\n\n", len(quotes))

	fmt.Fprintln(w, "Exporting data...")
	if err := collector.ExportAll(quotes, collector.NewTargets(demoOutput(out))); err != nil {
		return err
	}

	fmt.Fprintln(w, "\n=== Scraping Statistics ===")
	for _, line := range collector.ComputeStatistics(quotes).Lines() {
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, "\nDemo completed successfully!")
	fmt.Fprintln(w, "Check the output files to see the exported data.")
	return nil
}

// demoOutput keeps the configured directory but prefixes each enabled file.
func demoOutput(out config.OutputConfig) config.OutputConfig {
	prefix := func(name string) string {
		if name == "" {
			return ""
		}
		return "demo_" + name
	}
	out.CSV = prefix(out.CSV)
	out.JSON = prefix(out.JSON)
	out.JSONL = prefix(out.JSONL)
	return out
}

func sampleQuotes(at time.Time) collector.Collection {
	q := func(text, author string, tags ...string) scraper.Record {
		return scraper.Record{Text: text, Author: author, Tags: tags, CapturedAt: at}
	}
	return collector.Collection{
		q(`"The world as we have created it is a process of our thinking. It cannot be changed without changing our thinking."`,
			"Albert Einstein", "change", "deep-thoughts", "thinking", "world"),
		q(`"It is our choices, Harry, that show what we truly are, far more than our abilities."`,
			"J.K. Rowling", "abilities", "choices"),
		q(`"There are only two ways to live your life. One is as though nothing is a miracle. The other is as though everything is a miracle."`,
			"Albert Einstein", "inspirational", "life", "live", "miracle", "miracles"),
		q(`"The person, be it gentleman or lady, who has not pleasure in a good novel, must be intolerably stupid."`,
			"Jane Austen", "aliteracy", "books", "classic", "humor"),
		q(`"Imperfection is beauty, madness is genius and it's better to be absolutely ridiculous than absolutely boring."`,
			"Marilyn Monroe", "be-yourself", "inspirational"),
		q(`"Try not to become a man of success. Rather become a man of value."`,
			"Albert Einstein", "adulthood", "success", "value"),
		q(`"It is better to be hated for what you are than to be loved for what you are not."`,
			"André Gide", "life", "love"),
		q(`"I have not failed. I've just found 10,000 ways that won't work."`,
			"Thomas A. Edison", "edison", "failure", "inspirational", "paraphrased"),
		q(`"A woman is like a tea bag; you never know how strong it is until it's in hot water."`,
			"Eleanor Roosevelt", "misattributed-eleanor-roosevelt"),
		q(`"A day without sunshine is like, you know, night."`,
			"Steve Martin", "humor", "obvious", "simile"),
	}
}
