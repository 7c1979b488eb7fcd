package main

import (
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pocketsage/pocketsage/internal/common"
)

func merchantsCmd() *cobra.Command {
	var (
		inputFile string
		known     string
	)

	cmd := &cobra.Command{
		Use:   "merchants",
		Short: "Detect the business behind each transaction description",
		Long: `Reads transactions from a CSV file and identifies the merchant behind each
cryptic bank description. Known merchant names are preferred when they match;
new businesses are reported with a cleaned proper name.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			txns, err := loadTransactions(inputFile)
			if err != nil {
				return err
			}
			if len(txns) == 0 {
				return common.ErrNoTransactions
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
			bar := progressbar.Default(int64(len(batches)), "detecting merchants")

			matched := 0
			for _, batch := range batches {
				results, err := provider.AutoDetectMerchants(ctx, batch, parseMerchants(known), modelName)
				if err != nil {
					return err
				}

				for _, r := range results {
					name := r.BusinessName
					if name == "" {
						name = "(unknown)"
					} else {
						matched++
					}
					fmt.Printf("%s\t%s\n", r.TransactionID, name)
				}
				_ = bar.Add(1)
			}

			slog.Info("merchant detection complete",
				"transactions", len(txns),
				"matched", matched,
				"model", modelName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "transactions CSV file (required)")
	cmd.Flags().StringVarP(&known, "merchants", "m", "", "comma-separated known merchant names")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
