package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/pocketsage/pocketsage/internal/common"
	"github.com/pocketsage/pocketsage/internal/llm"
	"github.com/pocketsage/pocketsage/internal/model"
	"github.com/pocketsage/pocketsage/internal/obs"
)

// createProvider builds the OpenRouter provider from config, with the
// observability tracer attached when credentials are present.
func createProvider() (*llm.OpenRouterProvider, error) {
	apiKey := viper.GetString("openrouter.api_key")
	if apiKey == "" {
		apiKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if apiKey == "" {
		return nil, common.NewUserError(
			"OpenRouter API key not found in config or OPENROUTER_API_KEY environment variable",
			common.ErrMissingConfig)
	}

	cfg := llm.Config{
		APIKey:      apiKey,
		BaseURL:     viper.GetString("openrouter.base_url"),
		Referer:     "https://github.com/pocketsage/pocketsage",
		Title:       "pocketsage",
		Temperature: viper.GetFloat64("openrouter.temperature"),
		MaxTokens:   viper.GetInt("openrouter.max_tokens"),
		MaxRetries:  viper.GetInt("openrouter.max_retries"),
		RetryDelay:  viper.GetDuration("openrouter.retry_delay"),
		RateLimit:   viper.GetInt("openrouter.rate_limit"),
	}

	return llm.NewOpenRouterProvider(cfg,
		llm.WithTracer(obs.NewTracerFromEnv(slog.Default())),
	)
}

// resolveModel validates the configured model against the provider allow-list.
func resolveModel(provider *llm.OpenRouterProvider) (string, error) {
	modelName := viper.GetString("openrouter.model")
	if !provider.SupportsModel(modelName) {
		return "", common.NewUserError(
			fmt.Sprintf("unsupported model %q", modelName),
			common.ErrInvalidConfig)
	}
	return modelName, nil
}

// csvTransaction is the CSV row shape for exported statements.
type csvTransaction struct {
	ID        string `csv:"id"`
	Date      string `csv:"date"`
	Name      string `csv:"name"`
	Merchant  string `csv:"merchant"`
	Account   string `csv:"account"`
	Amount    string `csv:"amount"`
	Direction string `csv:"direction"`
}

// loadTransactions reads transactions from a CSV export.
func loadTransactions(path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var rows []csvTransaction
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	txns := make([]model.Transaction, 0, len(rows))
	for i, row := range rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q: %w", i+1, row.Date, err)
		}

		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount %q: %w", i+1, row.Amount, err)
		}

		direction := model.Direction(row.Direction)
		if direction == "" {
			direction = model.DirectionOutflow
		}

		txn := model.Transaction{
			ID:           row.ID,
			Date:         date,
			Name:         row.Name,
			MerchantName: row.Merchant,
			AccountName:  row.Account,
			Amount:       amount,
			Direction:    direction,
		}
		if txn.ID == "" {
			txn.ID = fmt.Sprintf("txn-%d", i+1)
		}
		txn.Hash = txn.GenerateHash()
		txns = append(txns, txn)
	}

	return txns, nil
}

// parseCategories turns "Groceries,Dining,Salary:income" into category models.
// An optional ":income" or ":expense" suffix sets the classification;
// expense is the default.
func parseCategories(spec string) []model.Category {
	var categories []model.Category
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name := part
		classification := model.ClassificationExpense
		if idx := strings.LastIndex(part, ":"); idx >= 0 {
			name = strings.TrimSpace(part[:idx])
			if strings.TrimSpace(part[idx+1:]) == "income" {
				classification = model.ClassificationIncome
			}
		}

		categories = append(categories, model.Category{
			Name:           name,
			Classification: classification,
		})
	}
	return categories
}

// parseMerchants turns a comma-separated list into merchant models.
func parseMerchants(spec string) []model.Merchant {
	var merchants []model.Merchant
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		merchants = append(merchants, model.Merchant{Name: part})
	}
	return merchants
}

// batchTransactions splits transactions into provider-sized batches.
func batchTransactions(txns []model.Transaction) [][]model.Transaction {
	var batches [][]model.Transaction
	for len(txns) > 0 {
		n := llm.MaxBatchSize
		if len(txns) < n {
			n = len(txns)
		}
		batches = append(batches, txns[:n])
		txns = txns[n:]
	}
	return batches
}
