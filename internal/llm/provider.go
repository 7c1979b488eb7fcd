package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pocketsage/pocketsage/internal/model"
	"github.com/pocketsage/pocketsage/internal/obs"
)

// supportedModels is the fixed allow-list of OpenRouter model identifiers the
// application has been validated against. Matching is exact.
var supportedModels = map[string]struct{}{
	"openai/gpt-4o":                     {},
	"openai/gpt-4o-mini":                {},
	"openai/gpt-4.1":                    {},
	"openai/gpt-4.1-mini":               {},
	"anthropic/claude-3.5-sonnet":       {},
	"anthropic/claude-3.5-haiku":        {},
	"deepseek/deepseek-chat":            {},
	"meta-llama/llama-3.1-70b-instruct": {},
}

// OpenRouterProvider is the Provider implementation backed by OpenRouter.
// It delegates prompt construction and parsing to its helpers and emits a
// best-effort observability trace per call.
type OpenRouterProvider struct {
	client      *openRouterClient
	categorizer Categorizer
	merchants   MerchantDetector
	chat        ChatPipeline
	tracer      obs.Tracer
	logger      *slog.Logger
}

var _ Provider = (*OpenRouterProvider)(nil)

// Option customizes provider construction.
type Option func(*OpenRouterProvider)

// WithTracer injects an observability tracer. Absent a tracer, calls emit
// nothing. The tracer's lifecycle is owned by the caller.
func WithTracer(t obs.Tracer) Option {
	return func(p *OpenRouterProvider) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *OpenRouterProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewOpenRouterProvider creates a provider from the given configuration.
func NewOpenRouterProvider(cfg Config, opts ...Option) (*OpenRouterProvider, error) {
	client, err := newOpenRouterClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter client: %w", err)
	}

	p := &OpenRouterProvider{
		client:      client,
		categorizer: newTransactionCategorizer(client),
		merchants:   newMerchantDetector(client),
		chat:        newChatPipeline(client),
		tracer:      obs.NoopTracer{},
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// SupportsModel reports whether the model identifier is in the allow-list.
func (p *OpenRouterProvider) SupportsModel(modelName string) bool {
	_, ok := supportedModels[modelName]
	return ok
}

// AutoCategorize assigns user categories to a batch of transactions.
func (p *OpenRouterProvider) AutoCategorize(ctx context.Context, txns []model.Transaction, categories []model.Category, modelName string) ([]Categorization, error) {
	const op = "auto_categorize"

	if len(txns) > MaxBatchSize {
		return nil, &Error{Op: op, Err: ErrBatchTooLarge}
	}

	result, err := p.categorizer.Categorize(ctx, txns, categories, modelName)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	p.trace(ctx, op, obs.TraceData{
		Input: map[string]any{
			"transaction_ids": transactionIDs(txns),
			"categories":      categoryNames(categories),
			"model":           modelName,
		},
		Output: result.Categorizations,
		Usage:  usagePayload(result.Usage),
	})

	return result.Categorizations, nil
}

// AutoDetectMerchants identifies the business behind each transaction.
func (p *OpenRouterProvider) AutoDetectMerchants(ctx context.Context, txns []model.Transaction, merchants []model.Merchant, modelName string) ([]MerchantMatch, error) {
	const op = "auto_detect_merchants"

	if len(txns) > MaxBatchSize {
		return nil, &Error{Op: op, Err: ErrBatchTooLarge}
	}

	result, err := p.merchants.DetectMerchants(ctx, txns, merchants, modelName)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	p.trace(ctx, op, obs.TraceData{
		Input: map[string]any{
			"transaction_ids": transactionIDs(txns),
			"merchants":       merchantNames(merchants),
			"model":           modelName,
		},
		Output: result.Merchants,
		Usage:  usagePayload(result.Usage),
	})

	return result.Merchants, nil
}

// ChatResponse generates an assistant reply, streaming through req.Stream
// when one is supplied.
func (p *OpenRouterProvider) ChatResponse(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	const op = "chat_response"

	response, err := p.chat.Respond(ctx, req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	p.trace(ctx, op, obs.TraceData{
		Input: map[string]any{
			"prompt": req.Prompt,
			"model":  req.Model,
		},
		Output: response,
		Usage:  usagePayload(response.Usage),
	})

	return response, nil
}

// Close releases background resources held by the underlying client.
func (p *OpenRouterProvider) Close() {
	p.client.Close()
}

// trace emits a best-effort observability record. The tracer swallows its
// own failures; this never affects the caller's result.
func (p *OpenRouterProvider) trace(ctx context.Context, name string, data obs.TraceData) {
	if p.tracer.Enabled() {
		p.logger.Debug("emitting trace", "operation", name)
	}
	p.tracer.Trace(ctx, name, data)
}

func usagePayload(u Usage) map[string]any {
	return map[string]any{
		"input_tokens":  u.InputTokens,
		"output_tokens": u.OutputTokens,
		"total_tokens":  u.TotalTokens,
	}
}

func transactionIDs(txns []model.Transaction) []string {
	ids := make([]string, len(txns))
	for i, txn := range txns {
		ids[i] = txn.ID
	}
	return ids
}

func categoryNames(categories []model.Category) []string {
	names := make([]string, len(categories))
	for i, cat := range categories {
		names[i] = cat.Name
	}
	return names
}

func merchantNames(merchants []model.Merchant) []string {
	names := make([]string, len(merchants))
	for i, m := range merchants {
		names[i] = m.Name
	}
	return names
}
