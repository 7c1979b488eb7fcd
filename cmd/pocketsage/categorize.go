package main

import (
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pocketsage/pocketsage/internal/common"
)

func categorizeCmd() *cobra.Command {
	var (
		inputFile  string
		categories string
	)

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Auto-categorize transactions from a CSV export",
		Long: `Reads transactions from a CSV file and assigns each one a category from
the provided candidate list using the configured OpenRouter model.

Transactions are processed in batches of up to 25.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			txns, err := loadTransactions(inputFile)
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				return common.ErrNoTransactions
			}

			candidates := parseCategories(categories)
			if len(candidates) == 0 {
				return fmt.Errorf("%w: at least one category is required", common.ErrInvalidConfig)
			}

			provider, err := createProvider()
			if err != nil {
				return err
			}
			defer provider.Close()

			modelName, err := resolveModel(provider)
			if err != nil {
				return err
			}

			batches := batchTransactions(txns)
			bar := progressbar.Default(int64(len(batches)), "categorizing")

			assigned := 0
			for _, batch := range batches {
				results, err := provider.AutoCategorize(ctx, batch, candidates, modelName)
				if err != nil {
					return err
				}

				for _, r := range results {
					name := r.CategoryName
					if name == "" {
						name = "(uncategorized)"
					} else {
						assigned++
					}
					fmt.Printf("%s\t%s\n", r.TransactionID, name)
				}
				_ = bar.Add(1)
			}

			slog.Info("categorization complete",
				"transactions", len(txns),
				"assigned", assigned,
				"model", modelName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "transactions CSV file (required)")
	cmd.Flags().StringVarP(&categories, "categories", "c", "", "comma-separated candidate categories, e.g. 'Groceries,Dining,Salary:income' (required)")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("categories")

	return cmd
}
