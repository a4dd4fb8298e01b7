package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/kamatealif/shelf-sage/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "shelf-sage",
	Short: "Shelf-Sage: A book recommendation engine",
	Long: `Shelf-Sage scrapes an online book catalogue, normalizes it into a
clean dataset, builds a TF-IDF content-similarity model, and serves
recommendations over HTTP or MCP.

Commands:
  scrape     Scrape the book catalogue into a CSV dataset
  build      Build the recommendation snapshot from a CSV dataset
  serve      Start the HTTP API (or MCP server with --mcp)
  recommend  Recommend books for a seed book from the command line
  search     Search the catalog by title or category`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	// Start with defaults
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/shelf-sage")
		viper.AddConfigPath(".")
	}

	// Environment variable overrides
	// SHELFSAGE_SERVER_ADDR -> server.addr
	viper.SetEnvPrefix("SHELFSAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Explicitly bind nested env vars
	viper.BindEnv("data.raw_csv", "SHELFSAGE_DATA_RAW_CSV")
	viper.BindEnv("data.snapshot_path", "SHELFSAGE_DATA_SNAPSHOT_PATH")
	viper.BindEnv("scraper.start_url", "SHELFSAGE_SCRAPER_START_URL")
	viper.BindEnv("scraper.delay", "SHELFSAGE_SCRAPER_DELAY")
	viper.BindEnv("scraper.max_books", "SHELFSAGE_SCRAPER_MAX_BOOKS")
	viper.BindEnv("server.addr", "SHELFSAGE_SERVER_ADDR")
	viper.BindEnv("server.page_size", "SHELFSAGE_SERVER_PAGE_SIZE")
	viper.BindEnv("server.max_top_n", "SHELFSAGE_SERVER_MAX_TOP_N")
	viper.BindEnv("storage.endpoint", "SHELFSAGE_STORAGE_ENDPOINT")
	viper.BindEnv("storage.bucket", "SHELFSAGE_STORAGE_BUCKET")
	viper.BindEnv("storage.access_key_id", "SHELFSAGE_STORAGE_ACCESS_KEY_ID")
	viper.BindEnv("storage.secret_access_key", "SHELFSAGE_STORAGE_SECRET_ACCESS_KEY")
	viper.BindEnv("mcp.name", "SHELFSAGE_MCP_NAME")
	viper.BindEnv("mcp.version", "SHELFSAGE_MCP_VERSION")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	// Unmarshal into struct (merges config file with defaults)
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}
}
