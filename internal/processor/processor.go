// Package processor cleans scraped HTML fragments into catalog text.
package processor

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// Processor converts scraped HTML into plain catalog text.
type Processor struct{}

// New creates a new Processor.
func New() *Processor {
	return &Processor{}
}

// Convert transforms an HTML fragment (a product description block) into
// Markdown. Empty input yields empty output.
func (p *Processor) Convert(htmlContent string) (string, error) {
	if htmlContent == "" {
		return "", nil
	}

	markdown, err := htmltomarkdown.ConvertString(htmlContent)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(markdown), nil
}

// ExtractTitle extracts the <title> content from a full HTML page. Site
// suffixes after a "|" separator are stripped, so
// "Sharp Objects | Books to Scrape" becomes "Sharp Objects".
func (p *Processor) ExtractTitle(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var title string
	var findTitle func(*html.Node)
	findTitle = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil {
				title = n.FirstChild.Data
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findTitle(c)
		}
	}
	findTitle(doc)

	if idx := strings.Index(title, "|"); idx >= 0 {
		title = title[:idx]
	}
	return strings.TrimSpace(title)
}
