package snapshot

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/kamatealif/shelf-sage/internal/catalog"
	"github.com/kamatealif/shelf-sage/internal/engine"
)

func buildSnap(t *testing.T) *engine.Snapshot {
	t.Helper()
	snap, err := engine.BuildSnapshot([]catalog.RawRow{
		{Title: "dragon quest", Category: "fantasy", Rating: "5", Price: "£10.00", Description: "dragons and castles"},
		{Title: "dragon tale", Category: "fantasy", Rating: "4", Price: "£8.00", Description: "a story of dragons"},
		{Title: "space war", Category: "scifi", Rating: "3", Description: "lasers in space"},
	})
	if err != nil {
		t.Fatalf("BuildSnapshot() error = %v", err)
	}
	return snap
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	snap := buildSnap(t)

	var buf bytes.Buffer
	if err := Save(&buf, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Catalog().Len() != snap.Catalog().Len() {
		t.Fatalf("catalog size mismatch: %d vs %d", loaded.Catalog().Len(), snap.Catalog().Len())
	}

	// Semantic round trip: same books, same similarity scores, same rankings.
	for i, want := range snap.Catalog().Books() {
		got := loaded.Catalog().Books()[i]
		if got.Title != want.Title || got.Slug != want.Slug || got.Category != want.Category {
			t.Errorf("book %d mismatch: %+v vs %+v", i, got, want)
		}
	}
	for i := 0; i < snap.Catalog().Len(); i++ {
		for j := 0; j < snap.Catalog().Len(); j++ {
			if loaded.Model().Score(i, j) != snap.Model().Score(i, j) {
				t.Errorf("similarity(%d,%d) changed across round trip", i, j)
			}
		}
	}

	want, err := snap.Recommend(engine.StrategyContent, "dragon quest", 2)
	if err != nil {
		t.Fatalf("Recommend() on original error = %v", err)
	}
	got, err := loaded.Recommend(engine.StrategyContent, "dragon quest", 2)
	if err != nil {
		t.Fatalf("Recommend() on loaded error = %v", err)
	}
	for i := range want {
		if got[i].Title != want[i].Title {
			t.Errorf("ranking changed across round trip: %q vs %q", got[i].Title, want[i].Title)
		}
	}
}

func TestLoad_ResolverWorksAfterRestore(t *testing.T) {
	snap := buildSnap(t)

	var buf bytes.Buffer
	if err := Save(&buf, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	book, err := loaded.Resolve("dragon-quest")
	if err != nil {
		t.Fatalf("Resolve() after restore error = %v", err)
	}
	if book.Title != "dragon quest" {
		t.Errorf("resolved %q", book.Title)
	}
}

func TestLoad_RejectsGarbage(t *testing.T) {
	if _, err := Load(bytes.NewReader([]byte("not a gzip blob"))); err == nil {
		t.Fatal("garbage input should fail to load")
	}
}

func TestSaveFile_LoadFile(t *testing.T) {
	snap := buildSnap(t)
	path := filepath.Join(t.TempDir(), "models", "recommender.snapshot")

	if err := SaveFile(path, snap); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if loaded.Catalog().Len() != 3 {
		t.Errorf("catalog size = %d, want 3", loaded.Catalog().Len())
	}
	if loaded.BuiltAt().IsZero() {
		t.Error("BuiltAt should survive the round trip")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.snapshot")); err == nil {
		t.Fatal("missing file should error")
	}
}
