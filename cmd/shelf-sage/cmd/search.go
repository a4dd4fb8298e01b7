package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchLimit  int
	searchFormat string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog by title or category",
	Long: `Search the catalog with a case-insensitive substring match across
book titles and categories.

Examples:
  # Basic search
  shelf-sage search "light"

  # Limit results
  shelf-sage search poetry --limit 5

  # JSON output for scripting
  shelf-sage search history --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "Output format: text or json")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	eng, err := loadEngine(cfg)
	if err != nil {
		return err
	}

	books := eng.Snapshot().Catalog().Search(args[0], searchLimit)
	if len(books) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if searchFormat == "json" {
		summaries := make([]any, 0, len(books))
		for _, b := range books {
			summaries = append(summaries, b.Summarize())
		}
		output, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Found %d results:\n\n", len(books))
	for i, b := range books {
		fmt.Printf("─── Result %d ───\n", i+1)
		fmt.Printf("Title:    %s\n", b.Title)
		fmt.Printf("Category: %s\n", b.Category)
		fmt.Printf("Slug:     %s\n\n", b.Slug)
	}

	return nil
}
