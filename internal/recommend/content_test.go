package recommend

import (
	"errors"
	"math"
	"testing"

	"github.com/kamatealif/shelf-sage/internal/catalog"
)

func TestBuildModel_EmptyCorpus(t *testing.T) {
	cat := mustCatalog(t, nil)

	_, err := BuildModel(cat)
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("want BuildError for empty corpus, got %v", err)
	}
}

func TestBuildModel_EmptyVocabulary(t *testing.T) {
	// Titles made entirely of stop-words and short tokens yield no terms.
	cat := mustCatalog(t, []catalog.RawRow{
		{Title: "the", Category: "of"},
		{Title: "a an", Category: "is"},
	})

	_, err := BuildModel(cat)
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("want BuildError for empty vocabulary, got %v", err)
	}
}

func TestBuildModel_SelfSimilarityIsMaximum(t *testing.T) {
	cat := mustCatalog(t, []catalog.RawRow{
		{Title: "dragon quest", Category: "fantasy", Description: "dragons and castles"},
		{Title: "space war", Category: "scifi", Description: "lasers in space"},
		{Title: "dragon tale", Category: "fantasy", Description: "a story of dragons"},
	})

	model, err := BuildModel(cat)
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	for i := 0; i < cat.Len(); i++ {
		self := model.Score(i, i)
		if math.Abs(self-1) > 1e-9 {
			t.Errorf("self-similarity of book %d = %v, want 1", i, self)
		}
		for j := 0; j < cat.Len(); j++ {
			if model.Score(i, j) > self+1e-9 {
				t.Errorf("similarity(%d,%d) = %v exceeds self-similarity %v", i, j, model.Score(i, j), self)
			}
		}
	}
}

func TestBuildModel_MatrixIsSymmetricAndBounded(t *testing.T) {
	cat := mustCatalog(t, []catalog.RawRow{
		{Title: "alpha wolf", Category: "nature"},
		{Title: "beta fish", Category: "nature"},
		{Title: "gamma rays", Category: "physics"},
	})

	model, err := BuildModel(cat)
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	sim := model.Similarity()
	for i := range sim {
		for j := range sim[i] {
			if sim[i][j] < 0 || sim[i][j] > 1+1e-9 {
				t.Errorf("similarity(%d,%d) = %v outside [0,1]", i, j, sim[i][j])
			}
			if math.Abs(sim[i][j]-sim[j][i]) > 1e-12 {
				t.Errorf("matrix not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestModel_SimilarRanksSharedVocabularyFirst(t *testing.T) {
	cat := mustCatalog(t, []catalog.RawRow{
		{Title: "dragon quest", Category: "fantasy", Description: "dragons castles knights"},
		{Title: "dragon tale", Category: "fantasy", Description: "dragons castles"},
		{Title: "space war", Category: "scifi", Description: "lasers asteroids"},
	})

	model, err := BuildModel(cat)
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	got, err := model.Similar("dragon quest", 2)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Similar() returned %d books, want 2", len(got))
	}
	if got[0].Title != "dragon tale" {
		t.Errorf("most similar = %q, want 'dragon tale'", got[0].Title)
	}
}

func TestModel_SimilarExcludesSeed(t *testing.T) {
	cat := mustCatalog(t, []catalog.RawRow{
		{Title: "dragon quest", Category: "fantasy"},
		{Title: "dragon tale", Category: "fantasy"},
	})

	model, err := BuildModel(cat)
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	got, err := model.Similar("dragon quest", 10)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	for _, b := range got {
		if b.Title == "dragon quest" {
			t.Error("seed must never appear in its own recommendations")
		}
	}
}

func TestModel_SimilarNotFound(t *testing.T) {
	cat := mustCatalog(t, []catalog.RawRow{
		{Title: "dragon quest", Category: "fantasy"},
	})

	model, err := BuildModel(cat)
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	_, err = model.Similar("nope", 5)
	var nf *catalog.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestModel_ZeroVectorDocument(t *testing.T) {
	// The second book's text is all stop-words: its vector is zero and its
	// similarity against everything must be 0, never NaN.
	cat := mustCatalog(t, []catalog.RawRow{
		{Title: "dragon quest", Category: "fantasy"},
		{Title: "the of", Category: "an is"},
	})

	model, err := BuildModel(cat)
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	s := model.Score(0, 1)
	if math.IsNaN(s) {
		t.Fatal("zero-vector similarity must not be NaN")
	}
	if s != 0 {
		t.Errorf("zero-vector similarity = %v, want 0", s)
	}
}

func TestModel_SimilarTopNBound(t *testing.T) {
	cat := mustCatalog(t, []catalog.RawRow{
		{Title: "one fish", Category: "c"},
		{Title: "two fish", Category: "c"},
		{Title: "red fish", Category: "c"},
		{Title: "blue fish", Category: "c"},
	})

	model, err := BuildModel(cat)
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	if got, _ := model.Similar("one fish", 2); len(got) != 2 {
		t.Errorf("topN=2 should truncate, got %d", len(got))
	}
	if got, _ := model.Similar("one fish", 100); len(got) != 3 {
		t.Errorf("topN beyond corpus should return all others, got %d", len(got))
	}
}

func TestRestore_DimensionValidation(t *testing.T) {
	cat := mustCatalog(t, []catalog.RawRow{
		{Title: "dragon quest", Category: "fantasy"},
		{Title: "space war", Category: "scifi"},
	})

	built, err := BuildModel(cat)
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}

	restored, err := Restore(cat, built.Vocabulary(), built.Vectors(), built.Similarity())
	if err != nil {
		t.Fatalf("Restore() round-trip error = %v", err)
	}
	if restored.Score(0, 1) != built.Score(0, 1) {
		t.Error("restored model should score identically")
	}

	_, err = Restore(cat, built.Vocabulary(), built.Vectors()[:1], built.Similarity())
	var be *BuildError
	if !errors.As(err, &be) {
		t.Fatalf("want BuildError on mismatched dimensions, got %v", err)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"drops stop-words", "the dragon and the castle", []string{"dragon", "castle"}},
		{"splits punctuation", "it's only: the himalayas", []string{"himalayas"}},
		{"drops single chars", "a b c dragon", []string{"dragon"}},
		{"lowercases", "DRAGON Quest", []string{"dragon", "quest"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
