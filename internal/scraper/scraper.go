// Package scraper crawls the book catalogue site and produces raw CSV
// rows for ingestion. It walks the paginated catalogue, visits every
// product page, and extracts title, category, price, rating,
// availability, description and cover image.
package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/kamatealif/shelf-sage/internal/ingest"
	"github.com/kamatealif/shelf-sage/internal/processor"
)

// Config holds scraper configuration.
type Config struct {
	Delay     time.Duration
	Timeout   time.Duration
	UserAgent string
	MaxBooks  int // 0 means no limit
}

// Scraper fetches book pages and returns raw rows.
type Scraper struct {
	config    Config
	processor *processor.Processor
}

// New creates a new Scraper with the given configuration.
func New(config Config) *Scraper {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "shelf-sage/1.0"
	}
	return &Scraper{
		config:    config,
		processor: processor.New(),
	}
}

// starRatings maps the site's star-rating CSS classes to numeric values.
var starRatings = map[string]int{
	"One":   1,
	"Two":   2,
	"Three": 3,
	"Four":  4,
	"Five":  5,
}

// Scrape crawls the catalogue starting at startURL and returns one row
// per product page. The context cancels the crawl between requests.
func (s *Scraper) Scrape(ctx context.Context, startURL string) ([]ingest.Row, error) {
	parsedURL, err := url.Parse(startURL)
	if err != nil {
		slog.Error("failed to parse URL", "url", startURL, "error", err)
		return nil, err
	}

	var rows []ingest.Row
	var mu sync.Mutex
	var cancelled bool

	slog.Debug("starting scrape", "url", startURL, "max_books", s.config.MaxBooks)

	c := colly.NewCollector(
		colly.UserAgent(s.config.UserAgent),
		// colly matches the whitelist against the hostname without the port.
		colly.AllowedDomains(parsedURL.Hostname()),
	)
	c.SetRequestTimeout(s.config.Timeout)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       s.config.Delay,
		Parallelism: 2,
	})

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			slog.Debug("scrape cancelled", "url", r.URL.String())
			r.Abort()
			cancelled = true
			return
		}
		if s.config.MaxBooks > 0 {
			mu.Lock()
			full := len(rows) >= s.config.MaxBooks
			mu.Unlock()
			if full {
				r.Abort()
			}
		}
	})

	// Catalogue listing: follow each product link.
	c.OnHTML("article.product_pod h3 a[href]", func(e *colly.HTMLElement) {
		e.Request.Visit(e.Attr("href"))
	})

	// Catalogue pagination.
	c.OnHTML("ul.pager li.next a[href]", func(e *colly.HTMLElement) {
		e.Request.Visit(e.Attr("href"))
	})

	// Product page: one row per book.
	c.OnHTML("html", func(e *colly.HTMLElement) {
		main := e.DOM.Find("div.product_main")
		if main.Length() == 0 {
			return
		}

		title := strings.TrimSpace(main.Find("h1").Text())
		if title == "" {
			// Fall back to the <title> tag when the heading is missing.
			if raw, err := e.DOM.Html(); err == nil {
				title = s.processor.ExtractTitle(raw)
			}
		}
		if title == "" {
			slog.Debug("skipping page without title", "url", e.Request.URL.String())
			return
		}

		row := ingest.Row{
			Title:        title,
			Category:     s.extractCategory(e),
			Price:        strings.TrimSpace(main.Find("p.price_color").Text()),
			Rating:       s.extractRating(e),
			Availability: s.extractAvailability(e),
			Description:  s.extractDescription(e),
			Image:        s.extractImage(e),
		}

		mu.Lock()
		if s.config.MaxBooks == 0 || len(rows) < s.config.MaxBooks {
			rows = append(rows, row)
		}
		mu.Unlock()

		slog.Debug("scraped book", "title", title, "url", e.Request.URL.String())
	})

	if err := c.Visit(startURL); err != nil {
		slog.Debug("visit error (continuing)", "url", startURL, "error", err)
		return rows, nil
	}
	c.Wait()

	if cancelled {
		slog.Info("scrape cancelled by context", "books_scraped", len(rows))
		return rows, ctx.Err()
	}

	slog.Debug("scrape complete", "url", startURL, "books", len(rows))
	return rows, nil
}

// extractCategory reads the third breadcrumb entry, which the site uses
// for the book's category.
func (s *Scraper) extractCategory(e *colly.HTMLElement) string {
	crumb := e.DOM.Find("ul.breadcrumb li").Eq(2)
	return strings.TrimSpace(crumb.Text())
}

func (s *Scraper) extractRating(e *colly.HTMLElement) string {
	classes, ok := e.DOM.Find("p.star-rating").Attr("class")
	if !ok {
		return ""
	}
	for _, cls := range strings.Fields(classes) {
		if n, found := starRatings[cls]; found {
			return strconv.Itoa(n)
		}
	}
	return ""
}

func (s *Scraper) extractAvailability(e *colly.HTMLElement) string {
	instock := e.DOM.Find("p.instock")
	if instock.Length() > 0 && instock.Find("i.icon-ok").Length() > 0 {
		return "true"
	}
	return "false"
}

// extractDescription converts the description block's HTML into
// Markdown so formatting inside descriptions survives normalization.
func (s *Scraper) extractDescription(e *colly.HTMLElement) string {
	desc := e.DOM.Find("#product_description").NextFiltered("p")
	if desc.Length() == 0 {
		return ""
	}
	raw, err := desc.Html()
	if err != nil {
		return strings.TrimSpace(desc.Text())
	}
	md, err := s.processor.Convert("<p>" + raw + "</p>")
	if err != nil {
		return strings.TrimSpace(desc.Text())
	}
	return md
}

func (s *Scraper) extractImage(e *colly.HTMLElement) string {
	src, ok := e.DOM.Find("div.item.active img").Attr("src")
	if !ok {
		return ""
	}
	return e.Request.AbsoluteURL(src)
}
