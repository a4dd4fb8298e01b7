// Package snapshot serializes a built recommendation snapshot to an
// opaque blob and back. The format is gzip-compressed JSON; only the
// semantic contents (catalog rows, vocabulary, vectors, similarity
// matrix) are contractual.
package snapshot

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/kamatealif/shelf-sage/internal/catalog"
	"github.com/kamatealif/shelf-sage/internal/engine"
	"github.com/kamatealif/shelf-sage/internal/recommend"
	"github.com/kamatealif/shelf-sage/pkg/models"
)

// formatVersion guards against loading blobs written by an incompatible
// release.
const formatVersion = 1

type blob struct {
	Version    int           `json:"version"`
	BuiltAt    time.Time     `json:"built_at"`
	Books      []models.Book `json:"books"`
	Vocabulary []string      `json:"vocabulary"`
	Vectors    [][]float64   `json:"vectors"`
	Similarity [][]float64   `json:"similarity"`
}

// Save writes the snapshot to w.
func Save(w io.Writer, snap *engine.Snapshot) error {
	gz := gzip.NewWriter(w)

	b := blob{
		Version:    formatVersion,
		BuiltAt:    snap.BuiltAt(),
		Books:      snap.Catalog().Books(),
		Vocabulary: snap.Model().Vocabulary(),
		Vectors:    snap.Model().Vectors(),
		Similarity: snap.Model().Similarity(),
	}

	if err := json.NewEncoder(gz).Encode(b); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot blob and reassembles a fully-usable snapshot.
func Load(r io.Reader) (*engine.Snapshot, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot blob: %w", err)
	}
	defer gz.Close()

	var b blob
	if err := json.NewDecoder(gz).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if b.Version != formatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", b.Version)
	}

	cat := catalog.FromBooks(b.Books)
	model, err := recommend.Restore(cat, b.Vocabulary, b.Vectors, b.Similarity)
	if err != nil {
		return nil, fmt.Errorf("snapshot is inconsistent: %w", err)
	}

	return engine.RestoreSnapshot(cat, model, b.BuiltAt), nil
}

// SaveFile writes the snapshot to a file, creating parent directories.
func SaveFile(path string, snap *engine.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer f.Close()

	if err := Save(f, snap); err != nil {
		return err
	}
	return f.Close()
}

// LoadFile reads a snapshot from a file.
func LoadFile(path string) (*engine.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer f.Close()

	return Load(f)
}
