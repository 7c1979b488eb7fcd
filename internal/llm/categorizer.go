package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pocketsage/pocketsage/internal/model"
)

const categorizerSystemPrompt = "You are a financial transaction categorizer. You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. Start your response directly with { and end with }."

// transactionCategorizer assigns user categories to transaction batches.
type transactionCategorizer struct {
	client *openRouterClient
}

func newTransactionCategorizer(client *openRouterClient) *transactionCategorizer {
	return &transactionCategorizer{client: client}
}

// Categorize fulfils the Categorizer interface.
func (c *transactionCategorizer) Categorize(ctx context.Context, txns []model.Transaction, categories []model.Category, modelName string) (*CategorizationResult, error) {
	payload := map[string]any{
		"model": modelName,
		"messages": []map[string]string{
			{"role": "system", "content": categorizerSystemPrompt},
			{"role": "user", "content": buildCategorizationPrompt(txns, categories)},
		},
		"temperature": c.client.temperature,
		"max_tokens":  c.client.maxTokens,
	}

	resp, err := c.client.ChatCompletion(ctx, payload)
	if err != nil {
		return nil, err
	}

	categorizations, err := parseCategorizations(resp.Choices[0].Message.Content, categories)
	if err != nil {
		return nil, err
	}

	return &CategorizationResult{
		Categorizations: categorizations,
		Usage:           resp.Usage.toUsage(),
	}, nil
}

// buildCategorizationPrompt enumerates the batch and candidate categories.
func buildCategorizationPrompt(txns []model.Transaction, categories []model.Category) string {
	var sb strings.Builder

	sb.WriteString("Assign one of the user's categories to each transaction below.\n\n")
	sb.WriteString("Categories:\n")
	for _, cat := range categories {
		sb.WriteString(fmt.Sprintf("- %s (%s)", cat.Name, cat.Classification))
		if cat.Description != "" {
			sb.WriteString(": " + cat.Description)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nTransactions:\n")
	for _, txn := range txns {
		sb.WriteString(fmt.Sprintf("- id=%s date=%s amount=%s direction=%s description=%q\n",
			txn.ID,
			txn.Date.Format("2006-01-02"),
			txn.Amount.String(),
			txn.Direction,
			txn.DisplayName()))
	}

	sb.WriteString(`
Respond with exactly one JSON object in this shape:
{"categorizations":[{"transaction_id":"...","category_name":"..."}]}

Rules:
- Include every transaction exactly once.
- category_name must be one of the listed categories, or "" when none fit.
- Match the category's income/expense classification to the transaction direction.`)

	return sb.String()
}

// parseCategorizations unmarshals the model output and drops category names
// outside the candidate set.
func parseCategorizations(content string, categories []model.Category) ([]Categorization, error) {
	var jsonResp struct {
		Categorizations []struct {
			TransactionID string `json:"transaction_id"`
			CategoryName  string `json:"category_name"`
		} `json:"categorizations"`
	}

	content = extractJSONObject(cleanMarkdownWrapper(content))

	if err := json.Unmarshal([]byte(content), &jsonResp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if len(jsonResp.Categorizations) == 0 {
		return nil, fmt.Errorf("no categorizations found in response")
	}

	known := make(map[string]bool, len(categories))
	for _, cat := range categories {
		known[cat.Name] = true
	}

	results := make([]Categorization, 0, len(jsonResp.Categorizations))
	for _, c := range jsonResp.Categorizations {
		name := c.CategoryName
		if !known[name] {
			// Hallucinated category names degrade to "no match"
			name = ""
		}
		results = append(results, Categorization{
			TransactionID: c.TransactionID,
			CategoryName:  name,
		})
	}

	return results, nil
}
