// Package engine owns the process-wide "current model" slot. A Snapshot
// bundles one immutable catalog with the recommenders and resolver built
// from it; the Engine swaps whole snapshots atomically so readers in
// flight see either the fully-old or fully-new state, never a partial one.
package engine

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/kamatealif/shelf-sage/internal/catalog"
	"github.com/kamatealif/shelf-sage/internal/recommend"
	"github.com/kamatealif/shelf-sage/internal/resolve"
	"github.com/kamatealif/shelf-sage/pkg/models"
)

// Strategy selects which recommender answers a request.
type Strategy string

const (
	StrategyCategory Strategy = "category"
	StrategyContent  Strategy = "content"
)

// Snapshot is one fully-built, immutable recommendation state.
type Snapshot struct {
	cat      *catalog.Catalog
	model    *recommend.Model
	byCat    *recommend.CategoryRecommender
	resolver *resolve.Resolver
	builtAt  time.Time
}

// BuildSnapshot normalizes rows and constructs the full snapshot: catalog,
// category recommender, similarity model, resolver. Any failure leaves no
// partial state behind.
func BuildSnapshot(rows []catalog.RawRow) (*Snapshot, error) {
	cat, err := catalog.Normalize(rows)
	if err != nil {
		return nil, err
	}
	return snapshotFrom(cat)
}

// RestoreSnapshot reassembles a snapshot from deserialized parts.
func RestoreSnapshot(cat *catalog.Catalog, model *recommend.Model, builtAt time.Time) *Snapshot {
	return &Snapshot{
		cat:      cat,
		model:    model,
		byCat:    recommend.ByCategory(cat),
		resolver: resolve.New(cat),
		builtAt:  builtAt,
	}
}

func snapshotFrom(cat *catalog.Catalog) (*Snapshot, error) {
	start := time.Now()
	model, err := recommend.BuildModel(cat)
	if err != nil {
		return nil, err
	}
	slog.Debug("similarity model built",
		"books", cat.Len(),
		"vocabulary", len(model.Vocabulary()),
		"duration", time.Since(start))

	return &Snapshot{
		cat:      cat,
		model:    model,
		byCat:    recommend.ByCategory(cat),
		resolver: resolve.New(cat),
		builtAt:  time.Now(),
	}, nil
}

// Catalog returns the snapshot's catalog.
func (s *Snapshot) Catalog() *catalog.Catalog { return s.cat }

// Model returns the snapshot's similarity model.
func (s *Snapshot) Model() *recommend.Model { return s.model }

// BuiltAt reports when the snapshot was constructed.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Resolve maps user input to a catalog entry.
func (s *Snapshot) Resolve(userInput string) (models.Book, error) {
	return s.resolver.Resolve(userInput)
}

// Recommend returns ranked books for the seed title using the given
// strategy. Unknown strategies fall back to category ranking.
func (s *Snapshot) Recommend(strategy Strategy, seedTitle string, topN int) ([]models.Book, error) {
	if strategy == StrategyContent {
		return s.model.Similar(seedTitle, topN)
	}
	return s.byCat.Recommend(seedTitle, topN)
}

// Engine holds the current snapshot and swaps it atomically on retrain.
type Engine struct {
	current atomic.Pointer[Snapshot]
}

// New creates an engine serving the given snapshot.
func New(snap *Snapshot) *Engine {
	e := &Engine{}
	e.current.Store(snap)
	return e
}

// Snapshot returns the current snapshot. Callers hold it for the duration
// of one request; a concurrent retrain never mutates it.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Retrain builds a brand-new snapshot off to the side and swaps it in.
// On failure the previous snapshot stays current.
func (e *Engine) Retrain(rows []catalog.RawRow) (*Snapshot, error) {
	snap, err := BuildSnapshot(rows)
	if err != nil {
		return nil, err
	}
	e.current.Store(snap)
	slog.Info("model retrained", "books", snap.cat.Len(), "built_at", snap.builtAt)
	return snap, nil
}
