// Command clean-tweets normalizes a raw tweet archive: it sorts the records
// by date, strips tweet artifacts and writes the result with a clean_tweets
// column next to the original text.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cognicore/topica/internal/logger"
	"github.com/cognicore/topica/pkg/topica/clean"
	"github.com/cognicore/topica/pkg/topica/ingest"
)

func main() {
	_ = godotenv.Load()

	var (
		inPath     = flag.String("i", "data/trump_tweets.csv", "Input CSV")
		outPath    = flag.String("o", "data/trump_tweets_cleaned.csv", "Output CSV (- for stdout)")
		textColumn = flag.String("text-column", "", "Text column name (default content)")
		markup     = flag.Bool("strip-markup", false, "Decode HTML entities and drop tags before cleaning")
		keepOrder  = flag.Bool("keep-order", false, "Do not sort records by date")
	)
	flag.Parse()

	zl, err := logger.New(logger.Options{Env: os.Getenv("TOPICA_ENV")})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	records, skipped, err := ingest.LoadCSV(*inPath, ingest.CSVOptions{TextColumn: *textColumn})
	if err != nil {
		zl.Fatal("failed to read input", zap.String("path", *inPath), zap.Error(err))
	}
	if !*keepOrder {
		ingest.SortByDate(records)
	}

	empty := 0
	for i := range records {
		text := records[i].Text
		if *markup {
			text = ingest.StripMarkup(text)
		}
		records[i].Clean = clean.Tweet(text)
		if clean.Trim(records[i].Clean) == "" {
			empty++
		}
	}

	if err := write(*outPath, records); err != nil {
		zl.Fatal("failed to write output", zap.String("path", *outPath), zap.Error(err))
	}
	zl.Info("tweets cleaned",
		zap.Int("records", len(records)),
		zap.Int("skipped_rows", skipped),
		zap.Int("empty_after_clean", empty),
		zap.String("output", *outPath),
	)
}

func write(path string, records []ingest.Record) error {
	if path == "-" {
		return ingest.WriteCSV(os.Stdout, records)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ingest.WriteCSV(f, records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
