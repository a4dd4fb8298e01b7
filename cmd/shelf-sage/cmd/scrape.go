package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kamatealif/shelf-sage/internal/config"
	"github.com/kamatealif/shelf-sage/internal/events"
	"github.com/kamatealif/shelf-sage/internal/ingest"
	"github.com/kamatealif/shelf-sage/internal/scraper"
	"github.com/kamatealif/shelf-sage/internal/storage"
	"github.com/spf13/cobra"
)

var (
	scrapeURL      string
	scrapeOut      string
	scrapeMaxBooks int
	scrapeBuild    bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the book catalogue into a CSV dataset",
	Long: `Scrape the configured book catalogue and write the raw dataset as CSV.

When S3 storage is configured the CSV and scrape metadata are also
uploaded under a timestamped prefix.

Examples:
  # Scrape the configured catalogue
  shelf-sage scrape

  # Scrape a specific catalogue URL
  shelf-sage scrape --url https://books.toscrape.com/

  # Limit the number of books (useful for smoke tests)
  shelf-sage scrape --max-books 50

  # Scrape and immediately build the recommendation snapshot
  shelf-sage scrape --build`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&scrapeURL, "url", "", "Catalogue URL to scrape (default from config)")
	scrapeCmd.Flags().StringVar(&scrapeOut, "out", "", "Output CSV path (default from config)")
	scrapeCmd.Flags().IntVar(&scrapeMaxBooks, "max-books", 0, "Stop after N books (0 = no limit)")
	scrapeCmd.Flags().BoolVar(&scrapeBuild, "build", false, "Build the snapshot after scraping")
}

func runScrape(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	slog.Debug("scrape command starting", "verbose", verbose, "build", scrapeBuild)

	startURL := cfg.Scraper.StartURL
	if scrapeURL != "" {
		startURL = scrapeURL
	}
	outPath := cfg.Data.RawCSV
	if scrapeOut != "" {
		outPath = scrapeOut
	}
	maxBooks := cfg.Scraper.MaxBooks
	if scrapeMaxBooks > 0 {
		maxBooks = scrapeMaxBooks
	}

	s := scraper.New(scraper.Config{
		Delay:     cfg.Scraper.Delay,
		Timeout:   cfg.Scraper.Timeout,
		UserAgent: cfg.Scraper.UserAgent,
		MaxBooks:  maxBooks,
	})

	// Start the upload worker before scraping so the scrape event can be
	// handed off as soon as the CSV is on disk.
	scrapeEvents := make(chan events.ScrapeCompleteEvent, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for event := range scrapeEvents {
			if event.Prefix == "" {
				continue
			}
			if err := uploadScrape(ctx, &cfg, event); err != nil {
				fmt.Printf("  Upload error: %v\n", err)
			} else {
				fmt.Printf("  Uploaded to S3 prefix: %s\n", event.Prefix)
			}
		}
	}()

	fmt.Printf("Scraping: %s\n", startURL)

	rows, err := s.Scrape(ctx, startURL)
	if err != nil {
		close(scrapeEvents)
		<-done
		return fmt.Errorf("scrape failed: %w", err)
	}

	if err := ingest.WriteFile(outPath, rows); err != nil {
		close(scrapeEvents)
		<-done
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	fmt.Printf("  Books: %d, CSV: %s\n", len(rows), outPath)

	event := events.ScrapeCompleteEvent{
		Path:      outPath,
		SourceURL: startURL,
		BookCount: len(rows),
		Timestamp: time.Now(),
	}
	if cfg.Storage.Endpoint != "" {
		event.Prefix = fmt.Sprintf("scrapes/%s", event.Timestamp.UTC().Format("2006-01-02T15-04-05"))
	}
	scrapeEvents <- event

	close(scrapeEvents)
	<-done

	if scrapeBuild {
		return buildSnapshot(ctx, &cfg, outPath, cfg.Data.SnapshotPath)
	}

	fmt.Println("Run 'shelf-sage build' to build the recommendation snapshot")
	return nil
}

// uploadScrape pushes the CSV and its metadata to S3.
func uploadScrape(ctx context.Context, cfg *config.Config, event events.ScrapeCompleteEvent) error {
	client, err := storage.New(storage.Config{
		Endpoint:        cfg.Storage.Endpoint,
		Bucket:          cfg.Storage.Bucket,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UseSSL:          cfg.Storage.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure bucket: %w", err)
	}

	content, err := os.ReadFile(event.Path)
	if err != nil {
		return err
	}
	if err := client.PutCSV(ctx, event.Prefix, filepath.Base(event.Path), content); err != nil {
		return err
	}
	return client.PutMetadata(ctx, event.Prefix, scrapeMetadata(event))
}

// scrapeMetadata converts a scrape event into the stored metadata record.
func scrapeMetadata(event events.ScrapeCompleteEvent) storage.ScrapeMetadata {
	return storage.ScrapeMetadata{
		SourceURL: event.SourceURL,
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		BookCount: event.BookCount,
	}
}
