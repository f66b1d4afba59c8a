package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	plain := NewError(SESSION_NOT_FOUND, "no session for incident")
	assert.Equal(t, "[SESSION_NOT_FOUND] no session for incident", plain.Error())

	cause := errors.New("disk full")
	wrapped := WrapError(STORE_IO_FAILED, "failed to persist session", cause)
	assert.Equal(t, "[STORE_IO_FAILED] failed to persist session: disk full", wrapped.Error())
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := NewErrorf(SESSION_CONFLICT, "active session exists for incident %s", "abc")
	assert.True(t, errors.Is(err, NewError(SESSION_CONFLICT, "anything")))
	assert.False(t, errors.Is(err, NewError(SESSION_NOT_FOUND, "anything")))

	// Matching survives wrapping with fmt.Errorf.
	outer := fmt.Errorf("advance failed: %w", err)
	assert.Equal(t, SESSION_CONFLICT, CodeOf(outer))
	assert.True(t, IsConflict(outer))
}

func TestRetryableHint(t *testing.T) {
	transient := WrapRetryable(STORE_IO_FAILED, "backend unavailable", errors.New("connection refused"))
	assert.True(t, transient.Retryable)

	permanent := NewError(INVALID_TRANSITION, "no option with that label")
	assert.False(t, permanent.Retryable)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notFound   bool
		conflict   bool
		transition bool
	}{
		{"session not found", NewError(SESSION_NOT_FOUND, "x"), true, false, false},
		{"playbook not found", NewError(PLAYBOOK_NOT_FOUND, "x"), true, false, false},
		{"incident not found", NewError(INCIDENT_NOT_FOUND, "x"), true, false, false},
		{"conflict", NewError(SESSION_CONFLICT, "x"), false, true, false},
		{"invalid transition", NewError(INVALID_TRANSITION, "x"), false, false, true},
		{"io failure", NewError(STORE_IO_FAILED, "x"), false, false, false},
		{"plain error", errors.New("x"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.conflict, IsConflict(tt.err))
			assert.Equal(t, tt.transition, IsInvalidTransition(tt.err))
		})
	}
}

func TestCodeOfNonStructuredError(t *testing.T) {
	require.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
	require.Equal(t, ErrorCode(""), CodeOf(nil))
}
