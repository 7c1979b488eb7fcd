package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketsage/pocketsage/internal/model"
)

var testCategories = []model.Category{
	{Name: "Groceries", Classification: model.ClassificationExpense},
	{Name: "Dining", Classification: model.ClassificationExpense, Description: "Restaurants and takeout"},
	{Name: "Salary", Classification: model.ClassificationIncome},
}

func TestBuildCategorizationPrompt(t *testing.T) {
	txns := []model.Transaction{{
		ID:           "txn-1",
		Date:         time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
		Name:         "WHOLEFDS #123",
		MerchantName: "Whole Foods",
		Amount:       decimal.NewFromFloat(54.20),
		Direction:    model.DirectionOutflow,
	}}

	prompt := buildCategorizationPrompt(txns, testCategories)

	assert.Contains(t, prompt, "Groceries")
	assert.Contains(t, prompt, "Restaurants and takeout")
	assert.Contains(t, prompt, "txn-1")
	assert.Contains(t, prompt, "2026-07-04")
	assert.Contains(t, prompt, "Whole Foods")
	assert.Contains(t, prompt, "54.2")
}

func TestParseCategorizations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Categorization
		wantErr bool
	}{
		{
			name:    "plain JSON",
			content: `{"categorizations":[{"transaction_id":"txn-1","category_name":"Groceries"}]}`,
			want:    []Categorization{{TransactionID: "txn-1", CategoryName: "Groceries"}},
		},
		{
			name: "fenced JSON",
			content: "```json\n" +
				`{"categorizations":[{"transaction_id":"txn-1","category_name":"Dining"}]}` +
				"\n```",
			want: []Categorization{{TransactionID: "txn-1", CategoryName: "Dining"}},
		},
		{
			name:    "leading commentary",
			content: `Here you go: {"categorizations":[{"transaction_id":"txn-1","category_name":"Salary"}]}`,
			want:    []Categorization{{TransactionID: "txn-1", CategoryName: "Salary"}},
		},
		{
			name:    "hallucinated category degrades to no match",
			content: `{"categorizations":[{"transaction_id":"txn-1","category_name":"Spaceships"}]}`,
			want:    []Categorization{{TransactionID: "txn-1", CategoryName: ""}},
		},
		{
			name:    "explicit no match",
			content: `{"categorizations":[{"transaction_id":"txn-1","category_name":""}]}`,
			want:    []Categorization{{TransactionID: "txn-1", CategoryName: ""}},
		},
		{
			name:    "malformed JSON",
			content: `{"categorizations": [`,
			wantErr: true,
		},
		{
			name:    "empty result",
			content: `{"categorizations":[]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCategorizations(tt.content, testCategories)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransactionCategorizerCategorize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "openai/gpt-4o-mini", body["model"])

		messages := body["messages"].([]any)
		require.Len(t, messages, 2)
		system := messages[0].(map[string]any)
		assert.Equal(t, "system", system["role"])
		assert.Contains(t, system["content"], "transaction categorizer")

		_, _ = w.Write([]byte(completionJSON(`{"categorizations":[{"transaction_id":"txn-1","category_name":"Groceries"}]}`)))
	}))
	defer server.Close()

	client, err := newOpenRouterClient(testClientConfig(server.URL))
	require.NoError(t, err)
	defer client.Close()
	categorizer := newTransactionCategorizer(client)

	txns := []model.Transaction{{ID: "txn-1", Name: "WHOLEFDS", Amount: decimal.NewFromInt(54)}}
	result, err := categorizer.Categorize(context.Background(), txns, testCategories, "openai/gpt-4o-mini")
	require.NoError(t, err)

	require.Len(t, result.Categorizations, 1)
	assert.Equal(t, "Groceries", result.Categorizations[0].CategoryName)
	assert.Equal(t, 16, result.Usage.TotalTokens)
}
