// Package obs provides best-effort observability tracing for AI provider
// calls. Emission failures are logged and swallowed; they never affect the
// operation being traced.
package obs
