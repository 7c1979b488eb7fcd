package common

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	t.Run("with wrapped error", func(t *testing.T) {
		err := NewUserError("could not reach OpenRouter", errors.New("connection refused"))
		assert.Equal(t, "could not reach OpenRouter: connection refused", err.Error())
	})

	t.Run("message only", func(t *testing.T) {
		err := &UserError{UserMessage: "nothing to do"}
		assert.Equal(t, "nothing to do", err.Error())
	})

	t.Run("unwraps to the cause", func(t *testing.T) {
		err := NewUserError("configuration problem", ErrMissingConfig)
		assert.ErrorIs(t, err, ErrMissingConfig)

		var userErr *UserError
		assert.ErrorAs(t, err, &userErr)
		assert.Equal(t, "configuration problem", userErr.UserMessage)
	})
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	defer slog.SetDefault(prev)
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	LogError(errors.New("boom"), "operation failed", Fields{"attempt": 2})

	out := buf.String()
	assert.Contains(t, out, "operation failed")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "attempt=2")
}
