package events

import "time"

// ScrapeCompleteEvent is sent when the scraper finishes writing a raw CSV.
type ScrapeCompleteEvent struct {
	Path      string    // Local CSV path (e.g. "data/raw/books.csv")
	Prefix    string    // S3 prefix when uploaded, empty otherwise
	SourceURL string    // Catalogue URL that was scraped
	BookCount int       // Number of books scraped
	Timestamp time.Time // When the scrape completed
}

// BuildCompleteEvent is sent when a snapshot build finishes.
type BuildCompleteEvent struct {
	SnapshotPath string        // Where the snapshot was written
	Books        int           // Catalog size
	Vocabulary   int           // Vocabulary size
	Duration     time.Duration // How long the build took
}
