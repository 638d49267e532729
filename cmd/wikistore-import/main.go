// Command wikistore-import drives one import job against a store root.
// It parses a handful of flags and logs JSON to stderr; configuration
// loading, logging options, and everything else belonging to a full
// driver binary are deliberately out of scope here. This is the minimal
// wiring needed to exercise the wikistore API from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"wikistore"
)

func main() {
	root := flag.String("root", "", "store root directory")
	wiki := flag.String("wiki", "", "wiki name (store subdirectory)")
	jobDir := flag.String("jobs", "", "directory of dump files to import")
	pagesPerChunk := flag.Int("pages-per-chunk", 0, "pages per committed chunk (0 selects a default)")
	parallelism := flag.Int("parallelism", 0, "parallel encode workers (0 selects runtime.NumCPU())")
	clear := flag.Bool("clear", false, "clear the store before importing")
	flag.Parse()

	if *root == "" || *wiki == "" || *jobDir == "" {
		fmt.Fprintln(os.Stderr, "usage: wikistore-import -root DIR -wiki NAME -jobs DIR")
		os.Exit(2)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	store, err := wikistore.Open(wikistore.Config{Root: *root, Logger: log}, *wiki)
	if err != nil {
		log.Error("open store", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	report, err := store.Import(context.Background(), wikistore.ImportOptions{
		JobDir:            *jobDir,
		PagesPerChunk:     *pagesPerChunk,
		Parallelism:       *parallelism,
		ClearBeforeImport: *clear,
	})
	if err != nil {
		log.Error("import failed", "err", err, "batches_committed", report.BatchesCommitted, "failed_file", report.FailedFile)
		os.Exit(1)
	}

	log.Info("import complete", "pages_imported", report.PagesImported, "batches_committed", report.BatchesCommitted)
}
