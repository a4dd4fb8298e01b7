package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/kamatealif/shelf-sage/internal/config"
	"github.com/kamatealif/shelf-sage/internal/engine"
	"github.com/kamatealif/shelf-sage/internal/events"
	"github.com/kamatealif/shelf-sage/internal/ingest"
	"github.com/kamatealif/shelf-sage/internal/snapshot"
	"github.com/kamatealif/shelf-sage/internal/storage"
	"github.com/spf13/cobra"
)

var (
	buildCSV    string
	buildOut    string
	buildUpload bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the recommendation snapshot from a CSV dataset",
	Long: `Normalize the raw CSV dataset, build the TF-IDF similarity model,
and write everything as a single snapshot file.

Examples:
  # Build from the configured CSV
  shelf-sage build

  # Build from a specific CSV into a specific snapshot
  shelf-sage build --csv data/raw/books.csv --out data/models/recommender.snapshot

  # Build and upload the snapshot to S3
  shelf-sage build --upload`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVar(&buildCSV, "csv", "", "Input CSV path (default from config)")
	buildCmd.Flags().StringVar(&buildOut, "out", "", "Output snapshot path (default from config)")
	buildCmd.Flags().BoolVar(&buildUpload, "upload", false, "Upload the snapshot to S3 after building")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	csvPath := cfg.Data.RawCSV
	if buildCSV != "" {
		csvPath = buildCSV
	}
	outPath := cfg.Data.SnapshotPath
	if buildOut != "" {
		outPath = buildOut
	}

	return buildSnapshot(ctx, &cfg, csvPath, outPath)
}

// buildSnapshot normalizes the CSV, builds the model, and writes the snapshot.
func buildSnapshot(ctx context.Context, cfg *config.Config, csvPath, outPath string) error {
	slog.Debug("building snapshot", "csv", csvPath, "out", outPath)

	rows, err := ingest.ReadFile(csvPath)
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}

	start := time.Now()
	snap, err := engine.BuildSnapshot(ingest.ToRawRows(rows))
	if err != nil {
		return fmt.Errorf("failed to build snapshot: %w", err)
	}
	if err := snapshot.SaveFile(outPath, snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	event := events.BuildCompleteEvent{
		SnapshotPath: outPath,
		Books:        snap.Catalog().Len(),
		Vocabulary:   len(snap.Model().Vocabulary()),
		Duration:     time.Since(start),
	}
	fmt.Printf("Snapshot built: %s\n", event.SnapshotPath)
	fmt.Printf("  Books: %d, Vocabulary: %d, Duration: %v\n",
		event.Books, event.Vocabulary, event.Duration)

	if !buildUpload {
		return nil
	}
	if cfg.Storage.Endpoint == "" {
		return fmt.Errorf("storage not configured - check config file")
	}

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

	blob, err := os.ReadFile(outPath)
	if err != nil {
		return err
	}
	key := path.Join("snapshots", path.Base(outPath))
	if err := client.PutSnapshot(ctx, key, blob); err != nil {
		return fmt.Errorf("failed to upload snapshot: %w", err)
	}

	fmt.Printf("  Uploaded to S3 key: %s\n", key)
	return nil
}
