// Package ingest reads raw book rows from CSV and feeds them to the
// catalog. It is the only loader; any other source must pass through the
// same catalog.Normalize entry point.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/kamatealif/shelf-sage/internal/catalog"
)

// requiredColumns must be present in the CSV header; their absence is a
// fatal SchemaError, not a per-row skip.
var requiredColumns = []string{"title", "category"}

// Row is one raw CSV record as produced by the scraper. All fields are
// kept as text; parsing into typed values happens in catalog.Normalize.
type Row struct {
	Title        string `csv:"title"`
	Category     string `csv:"category"`
	Price        string `csv:"price"`
	Availability string `csv:"availability"`
	Rating       string `csv:"rating"`
	Description  string `csv:"description"`
	Image        string `csv:"img"`
}

// ReadFile loads raw rows from a CSV file, validating the header first.
func ReadFile(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv %s: %w", path, err)
	}
	return Read(data)
}

// Read parses raw CSV bytes into rows. Missing required columns return a
// SchemaError; unknown extra columns are ignored.
func Read(data []byte) ([]Row, error) {
	if err := validateHeader(data); err != nil {
		return nil, err
	}

	var rows []Row
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	slog.Debug("csv parsed", "rows", len(rows))
	return rows, nil
}

// WriteFile writes rows to a CSV file, creating parent directories.
func WriteFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ToRawRows converts CSV rows into the catalog's ingestion type.
func ToRawRows(rows []Row) []catalog.RawRow {
	raw := make([]catalog.RawRow, len(rows))
	for i, r := range rows {
		raw[i] = catalog.RawRow{
			Title:       r.Title,
			Category:    r.Category,
			Rating:      r.Rating,
			Price:       r.Price,
			Description: r.Description,
			ImageRef:    r.Image,
		}
	}
	return raw
}

func validateHeader(data []byte) error {
	reader := csv.NewReader(bytes.NewReader(data))
	header, err := reader.Read()
	if err == io.EOF {
		return &catalog.SchemaError{Missing: requiredColumns}
	}
	if err != nil {
		return fmt.Errorf("failed to read csv header: %w", err)
	}

	present := make(map[string]struct{}, len(header))
	for _, col := range header {
		present[strings.ToLower(strings.TrimSpace(col))] = struct{}{}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &catalog.SchemaError{Missing: missing}
	}
	return nil
}
