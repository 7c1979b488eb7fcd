package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pocketsage/pocketsage/internal/model"
)

const merchantSystemPrompt = "You are a financial transaction merchant detector. You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. Start your response directly with { and end with }."

// merchantDetector identifies the business behind transaction descriptions.
type merchantDetector struct {
	client *openRouterClient
}

func newMerchantDetector(client *openRouterClient) *merchantDetector {
	return &merchantDetector{client: client}
}

// DetectMerchants fulfils the MerchantDetector interface.
func (d *merchantDetector) DetectMerchants(ctx context.Context, txns []model.Transaction, merchants []model.Merchant, modelName string) (*MerchantDetectionResult, error) {
	payload := map[string]any{
		"model": modelName,
		"messages": []map[string]string{
			{"role": "system", "content": merchantSystemPrompt},
			{"role": "user", "content": buildMerchantPrompt(txns, merchants)},
		},
		"temperature": d.client.temperature,
		"max_tokens":  d.client.maxTokens,
	}

	resp, err := d.client.ChatCompletion(ctx, payload)
	if err != nil {
		return nil, err
	}

	matches, err := parseMerchantMatches(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &MerchantDetectionResult{
		Merchants: matches,
		Usage:     resp.Usage.toUsage(),
	}, nil
}

// buildMerchantPrompt enumerates descriptions and the user's known merchants.
func buildMerchantPrompt(txns []model.Transaction, merchants []model.Merchant) string {
	var sb strings.Builder

	sb.WriteString("Identify the business behind each transaction description below.\n\n")
	sb.WriteString("Known merchants (prefer these names when they match):\n")
	for _, m := range merchants {
		sb.WriteString("- " + m.Name + "\n")
	}

	sb.WriteString("\nTransactions:\n")
	for _, txn := range txns {
		sb.WriteString(fmt.Sprintf("- id=%s description=%q\n", txn.ID, txn.Name))
	}

	sb.WriteString(`
Respond with exactly one JSON object in this shape:
{"merchants":[{"transaction_id":"...","business_name":"..."}]}

Rules:
- Include every transaction exactly once.
- Use the known merchant's exact name when the description matches it.
- For a recognizable business not in the list, return its cleaned proper name
  (e.g. "AMZ Mktp US" -> "Amazon", "SQ *THE COFFEE SHOP" -> "The Coffee Shop").
- Return "" when no business is identifiable.`)

	return sb.String()
}

// parseMerchantMatches unmarshals the model output. Business names outside
// the candidate list are kept so new merchants can be surfaced to the user.
func parseMerchantMatches(content string) ([]MerchantMatch, error) {
	var jsonResp struct {
		Merchants []struct {
			TransactionID string `json:"transaction_id"`
			BusinessName  string `json:"business_name"`
		} `json:"merchants"`
	}

	content = extractJSONObject(cleanMarkdownWrapper(content))

	if err := json.Unmarshal([]byte(content), &jsonResp); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if len(jsonResp.Merchants) == 0 {
		return nil, fmt.Errorf("no merchants found in response")
	}

	matches := make([]MerchantMatch, 0, len(jsonResp.Merchants))
	for _, m := range jsonResp.Merchants {
		matches = append(matches, MerchantMatch{
			TransactionID: m.TransactionID,
			BusinessName:  strings.TrimSpace(m.BusinessName),
		})
	}

	return matches, nil
}
