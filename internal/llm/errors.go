package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrBatchTooLarge indicates a transaction batch exceeded MaxBatchSize.
	// It is returned before any remote call is made.
	ErrBatchTooLarge = fmt.Errorf("transaction batch exceeds maximum of %d", MaxBatchSize)

	// ErrIncompleteStream indicates a stream ended without a terminal
	// response chunk.
	ErrIncompleteStream = errors.New("stream ended without a final response chunk")
)

// Error is the uniform failure kind surfaced by the provider. It preserves
// the underlying cause and names the operation that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("openrouter %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
