package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kamatealif/shelf-sage/internal/catalog"
	"github.com/kamatealif/shelf-sage/internal/engine"
	"github.com/spf13/cobra"
)

var (
	recommendStrategy string
	recommendTopN     int
	recommendFormat   string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [book]",
	Short: "Recommend books for a seed book",
	Long: `Recommend books related to a seed book, identified by slug, exact
title, or a title fragment.

Examples:
  # Recommend by shared category
  shelf-sage recommend a-light-in-the-attic

  # Recommend by content similarity
  shelf-sage recommend "A Light in the Attic" --strategy content

  # JSON output for scripting
  shelf-sage recommend sharp-objects --top-n 3 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().StringVar(&recommendStrategy, "strategy", "category", "Ranking strategy: category or content")
	recommendCmd.Flags().IntVar(&recommendTopN, "top-n", 5, "Maximum number of recommendations")
	recommendCmd.Flags().StringVar(&recommendFormat, "format", "text", "Output format: text or json")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	strategy := engine.Strategy(recommendStrategy)
	if strategy != engine.StrategyCategory && strategy != engine.StrategyContent {
		return fmt.Errorf("unknown strategy %q: must be category or content", recommendStrategy)
	}

	eng, err := loadEngine(cfg)
	if err != nil {
		return err
	}
	snap := eng.Snapshot()

	seed, err := snap.Resolve(args[0])
	if err != nil {
		var nf *catalog.NotFoundError
		if errors.As(err, &nf) {
			fmt.Printf("%s\n%s\n", nf.Error(), nf.Hint())
			return nil
		}
		return err
	}

	books, err := snap.Recommend(strategy, seed.Title, recommendTopN)
	if err != nil {
		return fmt.Errorf("recommendation failed: %w", err)
	}

	if recommendFormat == "json" {
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

	fmt.Printf("Seed: %s (%s)\n\n", seed.Title, seed.Category)
	if len(books) == 0 {
		fmt.Println("No recommendations found.")
		return nil
	}
	for i, b := range books {
		fmt.Printf("─── Recommendation %d ───\n", i+1)
		fmt.Printf("Title:    %s\n", b.Title)
		fmt.Printf("Category: %s\n", b.Category)
		if b.Rating != nil {
			fmt.Printf("Rating:   %d/5\n", *b.Rating)
		}
		if b.Price != nil {
			fmt.Printf("Price:    £%.2f\n", *b.Price)
		}
		fmt.Printf("Slug:     %s\n\n", b.Slug)
	}

	return nil
}
