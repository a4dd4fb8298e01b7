package catalog

import (
	"testing"
)

func TestNormalize_TextNormalization(t *testing.T) {
	cat, err := Normalize([]RawRow{
		{Title: "  A Game of Thrones  ", Category: " Fantasy "},
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	book, ok := cat.LookupExact("a game of thrones")
	if !ok {
		t.Fatal("normalized title should be findable")
	}
	if book.Category != "fantasy" {
		t.Errorf("category = %q, want %q", book.Category, "fantasy")
	}
	if book.Slug != "a-game-of-thrones" {
		t.Errorf("slug = %q, want %q", book.Slug, "a-game-of-thrones")
	}
}

func TestNormalize_PriceParsing(t *testing.T) {
	tests := []struct {
		name  string
		price string
		want  *float64
	}{
		{"plain number", "51.77", f(51.77)},
		{"currency prefix", "£23.88", f(23.88)},
		{"whitespace", "  12.50 ", f(12.50)},
		{"empty", "", nil},
		{"garbage", "not a price", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Normalize([]RawRow{
				{Title: "book", Category: "cat", Price: tt.price},
			})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			book := cat.Books()[0]
			if tt.want == nil {
				if book.Price != nil {
					t.Errorf("price = %v, want absent", *book.Price)
				}
				return
			}
			if book.Price == nil {
				t.Fatalf("price absent, want %v", *tt.want)
			}
			if *book.Price != *tt.want {
				t.Errorf("price = %v, want %v", *book.Price, *tt.want)
			}
		})
	}
}

func TestNormalize_RatingParsing(t *testing.T) {
	tests := []struct {
		name   string
		rating string
		want   *int
	}{
		{"valid", "4", i(4)},
		{"zero is valid", "0", i(0)},
		{"empty", "", nil},
		{"out of range", "6", nil},
		{"negative", "-1", nil},
		{"non-numeric", "Three", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Normalize([]RawRow{
				{Title: "book", Category: "cat", Rating: tt.rating},
			})
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			book := cat.Books()[0]
			if tt.want == nil {
				if book.Rating != nil {
					t.Errorf("rating = %v, want absent", *book.Rating)
				}
				return
			}
			if book.Rating == nil || *book.Rating != *tt.want {
				t.Errorf("rating = %v, want %v", book.Rating, *tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	rows := []RawRow{
		{Title: "The Hobbit", Category: "Fantasy", Price: "£10.00"},
	}

	first, err := Normalize(rows)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	// Feed normalized output back in; nothing should change.
	again, err := Normalize([]RawRow{{
		Title:    first.Books()[0].Title,
		Category: first.Books()[0].Category,
		Price:    "10.00",
	}})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	a, b := first.Books()[0], again.Books()[0]
	if a.Title != b.Title || a.Category != b.Category || a.Slug != b.Slug {
		t.Errorf("re-normalization changed output: %+v vs %+v", a, b)
	}
}

func TestCatalog_DuplicateTitlesFirstWins(t *testing.T) {
	cat, err := Normalize([]RawRow{
		{Title: "twin", Category: "first", Price: "1.00"},
		{Title: "twin", Category: "second", Price: "2.00"},
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if cat.Len() != 2 {
		t.Fatalf("both rows should be kept, got %d", cat.Len())
	}

	book, ok := cat.LookupExact("twin")
	if !ok {
		t.Fatal("lookup failed")
	}
	if book.Category != "first" {
		t.Errorf("lookup should return first occurrence, got category %q", book.Category)
	}
}

func TestCatalog_Categories(t *testing.T) {
	cat, err := Normalize([]RawRow{
		{Title: "a", Category: "Poetry"},
		{Title: "b", Category: "fantasy"},
		{Title: "c", Category: "poetry"},
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	got := cat.Categories()
	want := []string{"fantasy", "poetry"}
	if len(got) != len(want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("categories[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCatalog_Search(t *testing.T) {
	cat, err := Normalize([]RawRow{
		{Title: "A Light in the Attic", Category: "Poetry"},
		{Title: "Tipping the Velvet", Category: "Historical Fiction"},
		{Title: "Soumission", Category: "Fiction"},
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if got := cat.Search("velvet", 10); len(got) != 1 || got[0].Title != "tipping the velvet" {
		t.Errorf("title search failed: %v", got)
	}
	// "fiction" matches both the "historical fiction" and "fiction" categories.
	if got := cat.Search("FICTION", 10); len(got) != 2 {
		t.Errorf("category search should be case-insensitive, got %d results", len(got))
	}
	if got := cat.Search("fiction", 1); len(got) != 1 {
		t.Errorf("limit not honored, got %d results", len(got))
	}
	if got := cat.Search("zzz", 10); got != nil {
		t.Errorf("no-match search should return nil, got %v", got)
	}
}

func TestCatalog_SampleSlugs(t *testing.T) {
	cat, err := Normalize([]RawRow{
		{Title: "one", Category: "c"},
		{Title: "two", Category: "c"},
		{Title: "three", Category: "c"},
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if got := cat.SampleSlugs(2); len(got) != 2 || got[0] != "one" {
		t.Errorf("SampleSlugs(2) = %v", got)
	}
	if got := cat.SampleSlugs(10); len(got) != 3 {
		t.Errorf("SampleSlugs should clamp to catalog size, got %d", len(got))
	}
}

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }
