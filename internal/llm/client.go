package llm

import (
	"context"
	"encoding/json"

	"github.com/pocketsage/pocketsage/internal/model"
)

// MaxBatchSize is the largest transaction batch a single provider call accepts.
const MaxBatchSize = 25

// Provider defines the contract the application's AI features depend on.
type Provider interface {
	// SupportsModel reports whether the given model identifier is one this
	// provider knows how to route. Matching is exact and case-sensitive.
	SupportsModel(modelName string) bool

	// AutoCategorize assigns one of the user's categories to each transaction.
	AutoCategorize(ctx context.Context, txns []model.Transaction, categories []model.Category, modelName string) ([]Categorization, error)

	// AutoDetectMerchants identifies the business behind each transaction.
	AutoDetectMerchants(ctx context.Context, txns []model.Transaction, merchants []model.Merchant, modelName string) ([]MerchantMatch, error)

	// ChatResponse generates an assistant reply, optionally streaming partial
	// chunks through req.Stream as they arrive.
	ChatResponse(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Categorizer turns transactions plus candidate categories into label assignments.
type Categorizer interface {
	Categorize(ctx context.Context, txns []model.Transaction, categories []model.Category, modelName string) (*CategorizationResult, error)
}

// MerchantDetector turns transactions plus known merchants into business matches.
type MerchantDetector interface {
	DetectMerchants(ctx context.Context, txns []model.Transaction, merchants []model.Merchant, modelName string) (*MerchantDetectionResult, error)
}

// ChatPipeline builds a chat request payload, optionally streams partial
// chunks, and parses the final structured response.
type ChatPipeline interface {
	Respond(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Categorization is a single transaction-to-category assignment.
// CategoryName is empty when none of the candidates fit.
type Categorization struct {
	TransactionID string
	CategoryName  string
}

// CategorizationResult bundles assignments with the token usage of the call.
type CategorizationResult struct {
	Categorizations []Categorization
	Usage           Usage
}

// MerchantMatch is a single transaction-to-business assignment.
// BusinessName may name a merchant outside the candidate list when the model
// recognizes a business the user has not seen before; empty means no match.
type MerchantMatch struct {
	TransactionID string
	BusinessName  string
}

// MerchantDetectionResult bundles matches with the token usage of the call.
type MerchantDetectionResult struct {
	Merchants []MerchantMatch
	Usage     Usage
}

// FunctionDefinition describes a tool the model may request a call to.
// Parameters holds a JSON Schema object.
type FunctionDefinition struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Strict      bool
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	ID        string
	Name      string
	Arguments string
}

// FunctionResult carries the output of a previously requested tool call back
// to the model.
type FunctionResult struct {
	CallID string
	Output string
}

// ChatMessage is a single message exchanged with the model.
type ChatMessage struct {
	ID      string
	Role    string
	Content string
}

// Usage reports token consumption for a single call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ChatRequest describes one chat completion call.
type ChatRequest struct {
	Prompt             string
	Model              string
	Instructions       string
	Functions          []FunctionDefinition
	FunctionResults    []FunctionResult
	PreviousResponseID string

	// Stream, when non-nil, receives each parsed chunk in arrival order on
	// the calling goroutine. The final chunk forwarded is always the one
	// tagged ChunkResponse.
	Stream StreamFunc
}

// ChatResponse is the parsed terminal result of a chat completion.
type ChatResponse struct {
	ID               string
	Model            string
	Messages         []ChatMessage
	FunctionRequests []FunctionCall
	Usage            Usage
}

// ChunkKind discriminates the variants of a StreamChunk.
type ChunkKind string

const (
	// ChunkOutputText carries an incremental piece of assistant text.
	ChunkOutputText ChunkKind = "output_text"
	// ChunkResponse carries the complete parsed response and terminates the stream.
	ChunkResponse ChunkKind = "response"
)

// StreamChunk is one parsed unit of a streaming chat completion.
type StreamChunk struct {
	Kind     ChunkKind
	Text     string
	Response *ChatResponse
}

// StreamFunc receives parsed stream chunks. Invocations are synchronous and
// ordered; the stream is finite and ends with a ChunkResponse chunk.
type StreamFunc func(chunk StreamChunk)
