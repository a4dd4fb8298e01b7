package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/kamatealif/shelf-sage/internal/catalog"
	"github.com/kamatealif/shelf-sage/pkg/models"
)

// BuildError reports that the similarity model could not be constructed.
// It is fatal at build time; no partial model is ever produced.
type BuildError struct {
	Reason string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("cannot build similarity model: %s", e.Reason)
}

// Model is the derived similarity artifact: the corpus vocabulary, one
// TF-IDF weighted vector per book, and the full pairwise cosine matrix.
// It is 1:1 derived from a catalog snapshot and rebuilt wholesale on any
// catalog change; there is no incremental update path.
type Model struct {
	cat        *catalog.Catalog
	vocabulary []string
	vectors    [][]float64
	similarity [][]float64
}

// BuildModel vectorizes every book and computes the pairwise similarity
// matrix. Each document is the concatenation of title, category and
// description; stop-words and single-character tokens are excluded from
// the vocabulary. This is the O(n²) step and runs once per build.
func BuildModel(cat *catalog.Catalog) (*Model, error) {
	n := cat.Len()
	if n == 0 {
		return nil, &BuildError{Reason: "corpus is empty"}
	}

	docs := make([][]string, n)
	for i, b := range cat.Books() {
		docs[i] = tokenize(b.Title + " " + b.Category + " " + b.Description)
	}

	// Document frequency per term.
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}
	if len(df) == 0 {
		return nil, &BuildError{Reason: "vocabulary is empty"}
	}

	vocabulary := make([]string, 0, len(df))
	for term := range df {
		vocabulary = append(vocabulary, term)
	}
	sort.Strings(vocabulary)

	termIdx := make(map[string]int, len(vocabulary))
	for i, term := range vocabulary {
		termIdx[term] = i
	}

	// Smoothed IDF keeps weights positive for terms present in every document.
	idf := make([]float64, len(vocabulary))
	for i, term := range vocabulary {
		idf[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}

	vectors := make([][]float64, n)
	for i, doc := range docs {
		vec := make([]float64, len(vocabulary))
		for _, term := range doc {
			vec[termIdx[term]]++
		}
		for j := range vec {
			vec[j] *= idf[j]
		}
		vectors[i] = vec
	}

	similarity := make([][]float64, n)
	norms := make([]float64, n)
	for i, vec := range vectors {
		norms[i] = math.Sqrt(dot(vec, vec))
		similarity[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s := cosine(vectors[i], vectors[j], norms[i], norms[j])
			similarity[i][j] = s
			similarity[j][i] = s
		}
	}

	return &Model{
		cat:        cat,
		vocabulary: vocabulary,
		vectors:    vectors,
		similarity: similarity,
	}, nil
}

// Restore reassembles a model from serialized parts, validating that the
// dimensions still agree with the catalog.
func Restore(cat *catalog.Catalog, vocabulary []string, vectors, similarity [][]float64) (*Model, error) {
	n := cat.Len()
	if len(vectors) != n || len(similarity) != n {
		return nil, &BuildError{Reason: fmt.Sprintf(
			"snapshot dimensions disagree with catalog: %d vectors, %d similarity rows, %d books",
			len(vectors), len(similarity), n)}
	}
	for _, vec := range vectors {
		if len(vec) != len(vocabulary) {
			return nil, &BuildError{Reason: "vector width disagrees with vocabulary size"}
		}
	}
	for _, row := range similarity {
		if len(row) != n {
			return nil, &BuildError{Reason: "similarity matrix is not square"}
		}
	}
	return &Model{cat: cat, vocabulary: vocabulary, vectors: vectors, similarity: similarity}, nil
}

// Similar returns up to topN books ranked by cosine similarity to the
// seed, most similar first. The seed itself is always excluded; ties are
// broken by catalog order.
func (m *Model) Similar(seedTitle string, topN int) ([]models.Book, error) {
	seedIdx, ok := m.cat.IndexOf(seedTitle)
	if !ok {
		return nil, &catalog.NotFoundError{
			Query:       seedTitle,
			SampleSlugs: m.cat.SampleSlugs(sampleSlugCount),
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	candidates := make([]scored, 0, m.cat.Len()-1)
	for i, score := range m.similarity[seedIdx] {
		if i == seedIdx {
			continue
		}
		candidates = append(candidates, scored{idx: i, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if topN < 0 {
		topN = 0
	}
	if topN < len(candidates) {
		candidates = candidates[:topN]
	}

	books := make([]models.Book, len(candidates))
	for i, c := range candidates {
		books[i] = m.cat.At(c.idx)
	}
	return books, nil
}

// Score returns the similarity between two catalog positions.
func (m *Model) Score(i, j int) float64 {
	return m.similarity[i][j]
}

// Vocabulary returns the ordered corpus vocabulary.
func (m *Model) Vocabulary() []string { return m.vocabulary }

// Vectors returns the per-book TF-IDF vectors in catalog order.
func (m *Model) Vectors() [][]float64 { return m.vectors }

// Similarity returns the full pairwise similarity matrix.
func (m *Model) Similarity() [][]float64 { return m.similarity }

// Catalog returns the catalog snapshot this model was built from.
func (m *Model) Catalog() *catalog.Catalog { return m.cat }

// cosine guards the zero-norm case: a document with no features is
// similarity 0 against everything, never a division error.
func cosine(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot(a, b) / (normA * normB)
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// tokenize lowercases, splits on non-alphanumeric runs, and drops
// stop-words and single-character tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, tok := range fields {
		if len(tok) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}
