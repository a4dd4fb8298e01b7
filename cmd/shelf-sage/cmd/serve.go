package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kamatealif/shelf-sage/internal/api"
	"github.com/kamatealif/shelf-sage/internal/catalog"
	"github.com/kamatealif/shelf-sage/internal/config"
	"github.com/kamatealif/shelf-sage/internal/engine"
	"github.com/kamatealif/shelf-sage/internal/ingest"
	"github.com/kamatealif/shelf-sage/internal/mcp"
	"github.com/kamatealif/shelf-sage/internal/snapshot"
	"github.com/spf13/cobra"
)

var serveMCP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API or MCP server",
	Long: `Start the recommendation server.

By default this serves the HTTP API. With --mcp the server speaks the
Model Context Protocol over stdio instead and provides three tools:
  - resolve_book: Resolve a slug, title, or fragment to one book
  - recommend_books: Recommend books by category or content similarity
  - search_books: Search the catalog by title or category

Examples:
  shelf-sage serve
  shelf-sage serve --mcp`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Serve MCP over stdio instead of HTTP")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	eng, err := loadEngine(cfg)
	if err != nil {
		return err
	}

	if serveMCP {
		server, err := mcp.NewServer(mcp.Config{
			Name:    cfg.MCP.Name,
			Version: cfg.MCP.Version,
		}, eng)
		if err != nil {
			return fmt.Errorf("failed to create MCP server: %w", err)
		}

		fmt.Fprintln(cmd.ErrOrStderr(), "Starting MCP server...")
		return server.ServeStdio()
	}

	handler := api.New(api.Config{
		PageSize: cfg.Server.PageSize,
		MaxTopN:  cfg.Server.MaxTopN,
	}, eng, csvLoader(cfg.Data.RawCSV))

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
		return httpServer.Shutdown(context.Background())
	}
}

// loadEngine restores the snapshot from disk, falling back to a fresh
// build from the raw CSV when no snapshot exists yet.
func loadEngine(cfg config.Config) (*engine.Engine, error) {
	snap, err := snapshot.LoadFile(cfg.Data.SnapshotPath)
	if err == nil {
		slog.Info("snapshot loaded", "path", cfg.Data.SnapshotPath,
			"books", snap.Catalog().Len(), "built_at", snap.BuiltAt())
		return engine.New(snap), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	slog.Info("no snapshot found, building from CSV", "csv", cfg.Data.RawCSV)

	rows, err := csvLoader(cfg.Data.RawCSV)()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	snap, err = engine.BuildSnapshot(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}
	return engine.New(snap), nil
}

// csvLoader returns a RowLoader reading raw rows from the given CSV path.
func csvLoader(path string) api.RowLoader {
	return func() ([]catalog.RawRow, error) {
		rows, err := ingest.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ingest.ToRawRows(rows), nil
	}
}
