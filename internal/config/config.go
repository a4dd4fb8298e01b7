package config

import "time"

// Config holds all application configuration.
type Config struct {
	Data    Data    `mapstructure:"data"`
	Scraper Scraper `mapstructure:"scraper"`
	Server  Server  `mapstructure:"server"`
	Storage Storage `mapstructure:"storage"`
	MCP     MCP     `mapstructure:"mcp"`
}

// Data holds dataset and snapshot locations.
type Data struct {
	RawCSV       string `mapstructure:"raw_csv"`
	SnapshotPath string `mapstructure:"snapshot_path"`
}

// Scraper holds catalogue scraping configuration.
type Scraper struct {
	StartURL  string        `mapstructure:"start_url"`
	Delay     time.Duration `mapstructure:"delay"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
	MaxBooks  int           `mapstructure:"max_books"`
}

// Server holds HTTP API configuration.
type Server struct {
	Addr         string        `mapstructure:"addr"`
	PageSize     int           `mapstructure:"page_size"`
	MaxTopN      int           `mapstructure:"max_top_n"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Storage holds optional S3/MinIO storage configuration.
type Storage struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Data: Data{
			RawCSV:       "data/raw/books.csv",
			SnapshotPath: "data/models/recommender.snapshot",
		},
		Scraper: Scraper{
			StartURL:  "https://books.toscrape.com/",
			Delay:     500 * time.Millisecond,
			Timeout:   30 * time.Second,
			UserAgent: "shelf-sage/1.0",
			MaxBooks:  0, // no limit
		},
		Server: Server{
			Addr:         ":8000",
			PageSize:     20,
			MaxTopN:      50,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Storage: Storage{
			// Empty endpoint disables S3 entirely.
			Bucket: "shelf-sage",
			UseSSL: false,
		},
		MCP: MCP{
			Name:    "shelf-sage",
			Version: "1.0.0",
		},
	}
}
