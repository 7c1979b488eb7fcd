package obs

import "context"

// TraceData describes one logical operation's input, output, and token usage.
type TraceData struct {
	Input    any
	Output   any
	Usage    any
	Metadata map[string]any
}

// Tracer records named traces for AI operations. Implementations must never
// let emission failures escape to the caller.
type Tracer interface {
	// Trace emits a single named trace. Best-effort; errors are swallowed.
	Trace(ctx context.Context, name string, data TraceData)

	// Enabled reports whether traces are actually being emitted.
	Enabled() bool
}

// NoopTracer discards all traces. Used when credentials are absent.
type NoopTracer struct{}

// Trace does nothing.
func (NoopTracer) Trace(_ context.Context, _ string, _ TraceData) {}

// Enabled always returns false.
func (NoopTracer) Enabled() bool { return false }
