// Package resolve maps loosely-formatted user-supplied identifiers to
// catalog entries. The API layer resolves before invoking either
// recommender, so both strategies share one matching precedence.
package resolve

import (
	"strings"

	"github.com/kamatealif/shelf-sage/internal/catalog"
	"github.com/kamatealif/shelf-sage/pkg/models"
)

// sampleSlugCount is how many slugs a failed resolution reports back.
const sampleSlugCount = 10

// Resolver matches user input against a catalog.
type Resolver struct {
	cat    *catalog.Catalog
	bySlug map[string]int // slug -> first catalog index
}

// New builds a resolver over the given catalog.
func New(cat *catalog.Catalog) *Resolver {
	bySlug := make(map[string]int, cat.Len())
	for i, b := range cat.Books() {
		if _, seen := bySlug[b.Slug]; !seen {
			bySlug[b.Slug] = i
		}
	}
	return &Resolver{cat: cat, bySlug: bySlug}
}

// Resolve maps user input to exactly one book. Each step runs only if
// the previous one failed:
//
//  1. the lowercased, trimmed input matches a slug exactly
//  2. the slugified input matches a slug (handles title-shaped input)
//  3. the input with hyphens replaced by spaces appears as a substring
//     of a title; the first catalog-order match wins
//
// Failure returns a NotFoundError carrying sample slugs as a hint.
func (r *Resolver) Resolve(userInput string) (models.Book, error) {
	input := strings.ToLower(strings.TrimSpace(userInput))

	if idx, ok := r.bySlug[input]; ok {
		return r.cat.At(idx), nil
	}

	if alt := models.Slugify(input); alt != input {
		if idx, ok := r.bySlug[alt]; ok {
			return r.cat.At(idx), nil
		}
	}

	if guess := strings.TrimSpace(strings.ReplaceAll(input, "-", " ")); guess != "" {
		for _, b := range r.cat.Books() {
			if strings.Contains(b.Title, guess) {
				return b, nil
			}
		}
	}

	return models.Book{}, &catalog.NotFoundError{
		Query:       userInput,
		SampleSlugs: r.cat.SampleSlugs(sampleSlugCount),
	}
}
