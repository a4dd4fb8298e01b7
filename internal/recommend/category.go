// Package recommend implements the two ranking strategies: same-category
// ranking by rating and price, and content similarity over TF-IDF vectors.
package recommend

import (
	"sort"

	"github.com/kamatealif/shelf-sage/internal/catalog"
	"github.com/kamatealif/shelf-sage/pkg/models"
)

// sampleSlugCount is how many slugs a NotFoundError carries as a hint.
const sampleSlugCount = 10

// CategoryRecommender ranks books from the seed's category by rating
// (descending) then price (ascending). It only ever reads the catalog.
type CategoryRecommender struct {
	cat *catalog.Catalog
}

// ByCategory creates a recommender over the given catalog.
func ByCategory(cat *catalog.Catalog) *CategoryRecommender {
	return &CategoryRecommender{cat: cat}
}

// Recommend returns up to topN books sharing the seed's category, best
// first. The seed itself and any book with the same normalized title are
// excluded. topN <= 0 yields an empty result, not an error; the HTTP
// boundary rejects non-positive values before they reach here.
func (r *CategoryRecommender) Recommend(seedTitle string, topN int) ([]models.Book, error) {
	seed, ok := r.cat.LookupExact(seedTitle)
	if !ok {
		return nil, &catalog.NotFoundError{
			Query:       seedTitle,
			SampleSlugs: r.cat.SampleSlugs(sampleSlugCount),
		}
	}

	var candidates []models.Book
	for _, b := range r.cat.Books() {
		if b.Category == seed.Category && b.Title != seed.Title {
			candidates = append(candidates, b)
		}
	}

	// Stable sort keeps catalog order as the final tie-break.
	sort.SliceStable(candidates, func(i, j int) bool {
		return rankLess(candidates[i], candidates[j])
	})

	if topN < 0 {
		topN = 0
	}
	if topN < len(candidates) {
		candidates = candidates[:topN]
	}
	return candidates, nil
}

// rankLess orders a before b when a ranks strictly higher: rating
// descending with absent ratings below every present rating (including 0),
// then price ascending with absent prices below every priced book.
func rankLess(a, b models.Book) bool {
	switch {
	case a.Rating == nil && b.Rating == nil:
		// fall through to price
	case a.Rating == nil:
		return false
	case b.Rating == nil:
		return true
	case *a.Rating != *b.Rating:
		return *a.Rating > *b.Rating
	}

	switch {
	case a.Price == nil && b.Price == nil:
		return false
	case a.Price == nil:
		return false
	case b.Price == nil:
		return true
	}
	return *a.Price < *b.Price
}
