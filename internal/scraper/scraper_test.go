package scraper

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const cataloguePage1 = `<html><head><title>All products | Books to Scrape</title></head><body>
<article class="product_pod"><h3><a href="/catalogue/sharp-objects/index.html">Sharp Objects</a></h3></article>
<article class="product_pod"><h3><a href="/catalogue/soumission/index.html">Soumission</a></h3></article>
<ul class="pager"><li class="next"><a href="/catalogue/page-2.html">next</a></li></ul>
</body></html>`

const cataloguePage2 = `<html><head><title>All products | Books to Scrape</title></head><body>
<article class="product_pod"><h3><a href="/catalogue/olio/index.html">Olio</a></h3></article>
</body></html>`

func productPage(title, category, price, stars, desc string) string {
	return `<html><head><title>` + title + ` | Books to Scrape - Sandbox</title></head><body>
<ul class="breadcrumb"><li>Home</li><li>Books</li><li><a href="#">` + category + `</a></li><li>` + title + `</li></ul>
<div id="product_gallery"><div class="item active"><img src="../../media/` + strings.ReplaceAll(strings.ToLower(title), " ", "-") + `.jpg"/></div></div>
<div class="product_main">
<h1>` + title + `</h1>
<p class="price_color">` + price + `</p>
<p class="instock availability"><i class="icon-ok"></i> In stock</p>
<p class="star-rating ` + stars + `"></p>
</div>
<div id="product_description"><h2>Product Description</h2></div>
<p>` + desc + `</p>
</body></html>`
}

func testSite(t *testing.T) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/":                                   cataloguePage1,
		"/catalogue/page-2.html":              cataloguePage2,
		"/catalogue/sharp-objects/index.html": productPage("Sharp Objects", "Mystery", "£47.82", "Four", "A dark debut."),
		"/catalogue/soumission/index.html":    productPage("Soumission", "Fiction", "£50.10", "One", "A French novel."),
		"/catalogue/olio/index.html":          productPage("Olio", "Poetry", "£23.88", "Three", "Poems and prose."),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if content, ok := pages[r.URL.Path]; ok {
			w.Write([]byte(content))
		} else {
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestScraper_CrawlsCatalogueAndProducts(t *testing.T) {
	server := testSite(t)

	s := New(Config{
		Delay:     time.Millisecond,
		UserAgent: "test-agent",
	})

	rows, err := s.Scrape(t.Context(), server.URL)
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("expected 3 books across both pages, got %d", len(rows))
	}

	byTitle := make(map[string]int)
	for i, row := range rows {
		byTitle[row.Title] = i
	}
	idx, ok := byTitle["Sharp Objects"]
	if !ok {
		t.Fatal("missing 'Sharp Objects'")
	}

	row := rows[idx]
	if row.Category != "Mystery" {
		t.Errorf("category = %q, want %q", row.Category, "Mystery")
	}
	if row.Price != "£47.82" {
		t.Errorf("price = %q, want %q", row.Price, "£47.82")
	}
	if row.Rating != "4" {
		t.Errorf("rating = %q, want %q", row.Rating, "4")
	}
	if row.Availability != "true" {
		t.Errorf("availability = %q, want %q", row.Availability, "true")
	}
	if !strings.Contains(row.Description, "A dark debut.") {
		t.Errorf("description = %q", row.Description)
	}
	if !strings.HasPrefix(row.Image, server.URL) || !strings.HasSuffix(row.Image, ".jpg") {
		t.Errorf("image should be an absolute URL, got %q", row.Image)
	}

	if _, ok := byTitle["Olio"]; !ok {
		t.Error("pagination should reach the second catalogue page")
	}
}

func TestScraper_MaxBooksLimit(t *testing.T) {
	server := testSite(t)

	s := New(Config{
		Delay:     time.Millisecond,
		UserAgent: "test-agent",
		MaxBooks:  1,
	})

	rows, err := s.Scrape(t.Context(), server.URL)
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("MaxBooks=1 should stop at one book, got %d", len(rows))
	}
}

func TestScraper_SkipsNonProductPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><p>No products here.</p></body></html>`))
	}))
	defer server.Close()

	s := New(Config{Delay: time.Millisecond, UserAgent: "test-agent"})

	rows, err := s.Scrape(t.Context(), server.URL)
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestScraper_SetsUserAgent(t *testing.T) {
	var receivedUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body></body></html>`))
	}))
	defer server.Close()

	s := New(Config{Delay: time.Millisecond, UserAgent: "shelf-sage/1.0"})

	if _, err := s.Scrape(t.Context(), server.URL); err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if receivedUA != "shelf-sage/1.0" {
		t.Errorf("User-Agent = %q, want %q", receivedUA, "shelf-sage/1.0")
	}
}
