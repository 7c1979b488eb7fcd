package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// chatPipeline builds chat completion payloads, optionally streams partial
// chunks, and parses the final structured response.
type chatPipeline struct {
	client *openRouterClient
}

func newChatPipeline(client *openRouterClient) *chatPipeline {
	return &chatPipeline{client: client}
}

// Respond fulfils the ChatPipeline interface.
func (p *chatPipeline) Respond(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	payload := buildChatPayload(req, p.client.temperature, p.client.maxTokens)

	if req.Stream == nil {
		resp, err := p.client.ChatCompletion(ctx, payload)
		if err != nil {
			return nil, err
		}
		return parseChatResponse(resp), nil
	}

	return p.respondStreaming(ctx, payload, req.Stream)
}

// respondStreaming forwards each parsed chunk to the callback in arrival
// order, then returns the buffered terminal chunk's response.
func (p *chatPipeline) respondStreaming(ctx context.Context, payload map[string]any, stream StreamFunc) (*ChatResponse, error) {
	acc := newStreamAccumulator()
	var collected []StreamChunk

	err := p.client.StreamChatCompletion(ctx, payload, func(raw *chatCompletionChunk) error {
		for _, chunk := range acc.ingest(raw) {
			stream(chunk)
			collected = append(collected, chunk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if terminal := acc.terminal(); terminal != nil {
		stream(*terminal)
		collected = append(collected, *terminal)
	}

	for _, chunk := range collected {
		if chunk.Kind == ChunkResponse {
			return chunk.Response, nil
		}
	}

	return nil, ErrIncompleteStream
}

// buildChatPayload assembles the OpenRouter request body from a ChatRequest.
func buildChatPayload(req ChatRequest, temperature float64, maxTokens int) map[string]any {
	messages := make([]map[string]any, 0, len(req.FunctionResults)+2)

	if req.Instructions != "" {
		messages = append(messages, map[string]any{
			"role":    "system",
			"content": req.Instructions,
		})
	}

	messages = append(messages, map[string]any{
		"role":    "user",
		"content": req.Prompt,
	})

	for _, result := range req.FunctionResults {
		messages = append(messages, map[string]any{
			"role":         "tool",
			"tool_call_id": result.CallID,
			"content":      result.Output,
		})
	}

	payload := map[string]any{
		"model":       req.Model,
		"messages":    messages,
		"temperature": temperature,
		"max_tokens":  maxTokens,
	}

	if len(req.Functions) > 0 {
		tools := make([]map[string]any, 0, len(req.Functions))
		for _, fn := range req.Functions {
			parameters := fn.Parameters
			if len(parameters) == 0 {
				parameters = json.RawMessage(`{"type":"object","properties":{}}`)
			}
			tools = append(tools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        fn.Name,
					"description": fn.Description,
					"parameters":  parameters,
					"strict":      fn.Strict,
				},
			})
		}
		payload["tools"] = tools
	}

	if req.PreviousResponseID != "" {
		payload["previous_response_id"] = req.PreviousResponseID
	}

	return payload
}

// parseChatResponse maps the wire response to the adapter's shape.
func parseChatResponse(resp *chatCompletionResponse) *ChatResponse {
	choice := resp.Choices[0]

	response := &ChatResponse{
		ID:    resp.ID,
		Model: resp.Model,
		Usage: resp.Usage.toUsage(),
	}

	if choice.Message.Content != "" {
		response.Messages = []ChatMessage{{
			ID:      fmt.Sprintf("%s-0", resp.ID),
			Role:    choice.Message.Role,
			Content: choice.Message.Content,
		}}
	}

	for _, tc := range choice.Message.ToolCalls {
		response.FunctionRequests = append(response.FunctionRequests, FunctionCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return response
}
