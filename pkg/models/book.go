package models

import (
	"regexp"
	"strings"
)

// Book represents a normalized catalog entry.
//
// Title and Category are lowercased and trimmed at ingestion; Slug is derived
// from the normalized title and is the identifier exposed in URLs. Rating and
// Price are nil when the source row carried no usable value.
type Book struct {
	Title       string   `json:"title" csv:"title"`
	Category    string   `json:"category" csv:"category"`
	Slug        string   `json:"slug" csv:"-"`
	Rating      *int     `json:"rating,omitempty" csv:"-"`
	Price       *float64 `json:"price,omitempty" csv:"-"`
	Description string   `json:"description,omitempty" csv:"description"`
	ImageRef    string   `json:"image_ref,omitempty" csv:"img"`
}

// Summary is the projection of a Book returned by recommendation and listing
// endpoints. Description is deliberately omitted.
type Summary struct {
	Title    string   `json:"title"`
	Slug     string   `json:"slug"`
	Category string   `json:"category"`
	Rating   *int     `json:"rating,omitempty"`
	Price    *float64 `json:"price,omitempty"`
	ImageRef string   `json:"image_ref,omitempty"`
}

// Summarize returns the API projection of b.
func (b Book) Summarize() Summary {
	return Summary{
		Title:    b.Title,
		Slug:     b.Slug,
		Category: b.Category,
		Rating:   b.Rating,
		Price:    b.Price,
		ImageRef: b.ImageRef,
	}
}

var (
	slugStrip   = regexp.MustCompile(`[^\w\s-]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugHyphens = regexp.MustCompile(`-+`)
)

// Slugify derives a URL-safe identifier from a title.
// Lowercase + trim, strip everything outside [word, space, hyphen],
// whitespace runs become a single hyphen, hyphen runs collapse to one.
// Idempotent: Slugify(Slugify(s)) == Slugify(s).
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return s
}
