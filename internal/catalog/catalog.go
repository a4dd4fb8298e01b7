// Package catalog holds the normalized, immutable book collection that both
// recommenders and the resolver read. Normalization happens exactly once, at
// ingestion; a Catalog is never mutated after construction, so concurrent
// lookups need no locking.
package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kamatealif/shelf-sage/pkg/models"
)

// RawRow is one unnormalized record from the ingestion collaborator.
// Title and Category are required; everything else is optional and
// tolerated in loose formats (e.g. "£51.77" as a price).
type RawRow struct {
	Title       string
	Category    string
	Rating      string
	Price       string
	Description string
	ImageRef    string
}

// SchemaError reports required columns missing from the source data.
// It is fatal: no catalog can exist without title and category.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source data missing required columns: %s", strings.Join(e.Missing, ", "))
}

// NotFoundError reports that a user-supplied identifier or title matched no
// catalog entry. It is recoverable and carries a few existing slugs as a
// debugging aid for the caller.
type NotFoundError struct {
	Query       string
	SampleSlugs []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no book found for %q", e.Query)
}

// Hint returns a human-readable suggestion for the caller.
func (e *NotFoundError) Hint() string {
	if len(e.SampleSlugs) == 0 {
		return "the catalog is empty"
	}
	return "try one of these sample slugs: " + strings.Join(e.SampleSlugs, ", ")
}

// Catalog is an ordered, read-only collection of normalized books.
// Insertion order is preserved and serves as the final tie-break in
// every ranking built on top of it.
type Catalog struct {
	books   []models.Book
	byTitle map[string]int // normalized title -> first index
}

// Normalize builds a Catalog from raw rows. Title and category are
// lowercased and trimmed, the slug is derived from the normalized title,
// and unparseable ratings or prices become absent values, never errors.
//
// Duplicate normalized titles are kept in the catalog but only the first
// occurrence is reachable through LookupExact; see the lookup docs.
func Normalize(rows []RawRow) (*Catalog, error) {
	books := make([]models.Book, 0, len(rows))
	byTitle := make(map[string]int, len(rows))

	for _, row := range rows {
		title := strings.ToLower(strings.TrimSpace(row.Title))
		category := strings.ToLower(strings.TrimSpace(row.Category))

		book := models.Book{
			Title:       title,
			Category:    category,
			Slug:        models.Slugify(title),
			Rating:      parseRating(row.Rating),
			Price:       parsePrice(row.Price),
			Description: strings.TrimSpace(row.Description),
			ImageRef:    strings.TrimSpace(row.ImageRef),
		}

		if _, seen := byTitle[title]; !seen {
			byTitle[title] = len(books)
		}
		books = append(books, book)
	}

	return &Catalog{books: books, byTitle: byTitle}, nil
}

// FromBooks reassembles a catalog from already-normalized books, as read
// back from a snapshot. No re-normalization happens; insertion order is
// preserved.
func FromBooks(books []models.Book) *Catalog {
	byTitle := make(map[string]int, len(books))
	for i, b := range books {
		if _, seen := byTitle[b.Title]; !seen {
			byTitle[b.Title] = i
		}
	}
	return &Catalog{books: books, byTitle: byTitle}
}

// LookupExact returns the book whose normalized title equals title.
// When several rows normalized to the same title, the first catalog-order
// entry wins; later duplicates are never returned from lookups.
func (c *Catalog) LookupExact(title string) (models.Book, bool) {
	idx, ok := c.byTitle[title]
	if !ok {
		return models.Book{}, false
	}
	return c.books[idx], true
}

// IndexOf returns the catalog position of the first book with the given
// normalized title.
func (c *Catalog) IndexOf(title string) (int, bool) {
	idx, ok := c.byTitle[title]
	return idx, ok
}

// Books returns the underlying ordered slice. Callers must treat it as
// read-only.
func (c *Catalog) Books() []models.Book {
	return c.books
}

// At returns the book at catalog position i.
func (c *Catalog) At(i int) models.Book {
	return c.books[i]
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.books)
}

// Categories returns the sorted set of distinct categories.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var cats []string
	for _, b := range c.books {
		if b.Category == "" {
			continue
		}
		if _, ok := seen[b.Category]; ok {
			continue
		}
		seen[b.Category] = struct{}{}
		cats = append(cats, b.Category)
	}
	sort.Strings(cats)
	return cats
}

// Search returns up to limit books whose title or category contains the
// query, case-insensitively, in catalog order.
func (c *Catalog) Search(query string, limit int) []models.Book {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return nil
	}

	var matched []models.Book
	for _, b := range c.books {
		if strings.Contains(b.Title, q) || strings.Contains(b.Category, q) {
			matched = append(matched, b)
			if len(matched) == limit {
				break
			}
		}
	}
	return matched
}

// SampleSlugs returns up to n slugs in catalog order, used as the
// diagnostic hint on failed resolutions.
func (c *Catalog) SampleSlugs(n int) []string {
	if n > len(c.books) {
		n = len(c.books)
	}
	slugs := make([]string, 0, n)
	for _, b := range c.books[:n] {
		slugs = append(slugs, b.Slug)
	}
	return slugs
}

func parseRating(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 5 {
		return nil
	}
	return &n
}

// parsePrice accepts loosely formatted prices such as "£51.77" by
// stripping everything except digits and dots before parsing.
func parsePrice(s string) *float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || f < 0 {
		return nil
	}
	return &f
}
