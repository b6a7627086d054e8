package errs

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// TestClassifyStatus tests HTTP status mapping onto the taxonomy.
func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   error
	}{
		{200, nil},
		{204, nil},
		{401, ErrAuthRejected},
		{403, ErrAuthRejected},
		{404, ErrUnexpectedStatus},
		{418, ErrUnexpectedStatus},
		{429, ErrServer},
		{500, ErrServer},
		{503, ErrServer},
	}

	for _, tt := range tests {
		err := ClassifyStatus(tt.status)
		if tt.want == nil {
			if err != nil {
				t.Errorf("status %d: expected nil, got %v", tt.status, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
	}
}

// TestKind tests classification strings, including wrapped errors.
func TestKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"auth sentinel", ErrAuthRejected, KindAuth},
		{"wrapped auth", fmt.Errorf("status 401: %w", ErrAuthRejected), KindAuth},
		{"server", ErrServer, KindServer},
		{"local io", fmt.Errorf("%w: disk full", ErrLocalIO), KindLocalIO},
		{"cancelled", context.Canceled, KindCancelled},
		{"deadline", context.DeadlineExceeded, KindCancelled},
		{"extraction failure", &AuthExtractionError{Attempts: 3, Err: ErrTokenNotFound}, KindAuth},
		{"anything else", errors.New("connection refused"), KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

// TestRetryable tests the retry policy boundaries.
func TestRetryable(t *testing.T) {
	t.Parallel()

	if !Retryable(ErrServer) {
		t.Error("server errors should retry")
	}
	if !Retryable(errors.New("transport broke")) {
		t.Error("network errors should retry")
	}
	if Retryable(ErrAuthRejected) {
		t.Error("auth rejections are handled by invalidation, not retry")
	}
	if Retryable(fmt.Errorf("%w: no space", ErrLocalIO)) {
		t.Error("local io errors must never retry")
	}
	if Retryable(ClassifyStatus(404)) {
		t.Error("a 404 is deterministic and must not retry")
	}
	if Retryable(context.Canceled) {
		t.Error("cancellation must never retry")
	}
	if Retryable(nil) {
		t.Error("nil is not retryable")
	}
}
