package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultLangfuseHost = "https://cloud.langfuse.com"

// LangfuseTracer emits traces to a Langfuse-compatible ingestion endpoint.
type LangfuseTracer struct {
	httpClient *http.Client
	host       string
	publicKey  string
	secretKey  string
	logger     *slog.Logger
}

// NewTracerFromEnv returns a live tracer when both LANGFUSE_PUBLIC_KEY and
// LANGFUSE_SECRET_KEY are set, and a NoopTracer otherwise. LANGFUSE_HOST
// overrides the default cloud endpoint.
func NewTracerFromEnv(logger *slog.Logger) Tracer {
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")
	if publicKey == "" || secretKey == "" {
		return NoopTracer{}
	}

	host := os.Getenv("LANGFUSE_HOST")
	if host == "" {
		host = defaultLangfuseHost
	}

	return NewLangfuseTracer(publicKey, secretKey, host, logger)
}

// NewLangfuseTracer creates a tracer with explicit credentials.
func NewLangfuseTracer(publicKey, secretKey, host string, logger *slog.Logger) *LangfuseTracer {
	if logger == nil {
		logger = slog.Default()
	}

	return &LangfuseTracer{
		publicKey: publicKey,
		secretKey: secretKey,
		host:      strings.TrimSuffix(host, "/"),
		logger:    logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled always returns true for a constructed LangfuseTracer.
func (t *LangfuseTracer) Enabled() bool { return true }

// Trace emits a trace-create plus generation-create event batch. Any failure
// is logged at warn level and swallowed.
func (t *LangfuseTracer) Trace(ctx context.Context, name string, data TraceData) {
	if err := t.emit(ctx, name, data); err != nil {
		t.logger.Warn("failed to emit trace",
			"trace", name,
			"error", err)
	}
}

// ingestionEvent is one entry of a Langfuse batch ingestion request.
type ingestionEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp"`
	Body      map[string]any `json:"body"`
}

func (t *LangfuseTracer) emit(ctx context.Context, name string, data TraceData) error {
	traceID := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	events := []ingestionEvent{
		{
			ID:        uuid.NewString(),
			Type:      "trace-create",
			Timestamp: now,
			Body: map[string]any{
				"id":       traceID,
				"name":     name,
				"input":    data.Input,
				"output":   data.Output,
				"metadata": data.Metadata,
			},
		},
		{
			ID:        uuid.NewString(),
			Type:      "generation-create",
			Timestamp: now,
			Body: map[string]any{
				"id":      uuid.NewString(),
				"traceId": traceID,
				"name":    name,
				"input":   data.Input,
				"output":  data.Output,
				"usage":   data.Usage,
			},
		},
	}

	jsonBody, err := json.Marshal(map[string]any{"batch": events})
	if err != nil {
		return fmt.Errorf("failed to marshal trace batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.host+"/api/public/ingestion", bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(t.publicKey, t.secretKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 207 is the ingestion API's partial-success status
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ingestion error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}
