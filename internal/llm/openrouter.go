package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pocketsage/pocketsage/internal/common"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Config holds configuration for the OpenRouter provider.
type Config struct {
	APIKey      string
	BaseURL     string
	Referer     string
	Title       string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	RetryDelay  time.Duration
	RateLimit   int
}

// openRouterClient is the raw HTTP transport for the OpenRouter API.
type openRouterClient struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	referer     string
	title       string
	temperature float64
	maxTokens   int
	rateLimiter *rateLimiter
	retryOpts   common.RetryOptions
}

// newOpenRouterClient creates a transport client from the given configuration.
func newOpenRouterClient(cfg Config) (*openRouterClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &openRouterClient{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		referer:     cfg.Referer,
		title:       cfg.Title,
		temperature: temperature,
		maxTokens:   maxTokens,
		rateLimiter: newRateLimiter(cfg.RateLimit),
		retryOpts:   retryOpts,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// ChatCompletion sends a single non-streaming chat completion request,
// retrying transient failures with exponential backoff.
func (c *openRouterClient) ChatCompletion(ctx context.Context, payload map[string]any) (*chatCompletionResponse, error) {
	var response chatCompletionResponse

	err := common.WithRetry(ctx, func() error {
		if err := c.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		resp, err := c.post(ctx, "/chat/completions", payload)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: true}
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to read response: %w", err), Retryable: true}
		}

		if err := classifyStatus(resp.StatusCode, body); err != nil {
			return err
		}

		if err := json.Unmarshal(body, &response); err != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to parse response: %w", err), Retryable: false}
		}

		return nil
	}, c.retryOpts)
	if err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	return &response, nil
}

// StreamChatCompletion sends a streaming chat completion request and invokes
// handler for each raw chunk as it arrives. Streams are not retried; a failure
// mid-stream surfaces to the caller.
func (c *openRouterClient) StreamChatCompletion(ctx context.Context, payload map[string]any, handler func(*chatCompletionChunk) error) error {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return err
	}

	payload["stream"] = true
	payload["stream_options"] = map[string]any{"include_usage": true}

	resp, err := c.post(ctx, "/chat/completions", payload)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return classifyStatus(resp.StatusCode, body)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			// SSE keep-alive comments
			continue
		}

		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var chunk chatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("failed to parse stream chunk: %w", err)
		}

		if err := handler(&chunk); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}

	return nil
}

// post issues an authenticated JSON POST to the given API path.
func (c *openRouterClient) post(ctx context.Context, path string, payload map[string]any) (*http.Response, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// classifyStatus maps an HTTP status to a retryable or terminal error.
// Rate limits and server errors are transient; other 4xx are not.
func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return &common.RetryableError{
			Err:       fmt.Errorf("%w: %s", common.ErrRateLimit, string(body)),
			Retryable: true,
		}
	case status >= 500:
		return &common.RetryableError{
			Err:       fmt.Errorf("OpenRouter API error (status %d): %s", status, string(body)),
			Retryable: true,
		}
	default:
		return &common.RetryableError{
			Err:       fmt.Errorf("OpenRouter API error (status %d): %s", status, string(body)),
			Retryable: false,
		}
	}
}

// Close releases the client's background resources.
func (c *openRouterClient) Close() {
	c.rateLimiter.Close()
}

// chatCompletionResponse represents the OpenRouter chat completion response.
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role      string         `json:"role"`
			Content   string         `json:"content"`
			ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
	Usage   wireUsage `json:"usage"`
	Created int64     `json:"created"`
}

// chatCompletionChunk represents one SSE chunk of a streaming completion.
type chatCompletionChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Role      string         `json:"role,omitempty"`
			Content   string         `json:"content,omitempty"`
			ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
		Index        int     `json:"index"`
	} `json:"choices"`
	Usage *wireUsage `json:"usage,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Index    int    `json:"index"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u wireUsage) toUsage() Usage {
	return Usage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  u.TotalTokens,
	}
}
