// Package errs defines the error taxonomy for token and download failures.
package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error classification strings carried on failed download outcomes.
const (
	KindNetwork   = "network"
	KindAuth      = "auth"
	KindServer    = "server"
	KindLocalIO   = "local-io"
	KindCancelled = "cancelled"
)

// AuthExtractionError means no valid token could be obtained. Fatal to a
// batch unless a cached valid token exists.
type AuthExtractionError struct {
	Attempts int
	Err      error
}

func (e *AuthExtractionError) Error() string {
	return fmt.Sprintf("token extraction failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *AuthExtractionError) Unwrap() error { return e.Err }

// ConflictError is a ledger fingerprint collision with a differing,
// non-identical file. Surfaced, never auto-resolved.
type ConflictError struct {
	Fingerprint  string
	ExistingPath string
	NewPath      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("fingerprint %s already recorded at %q, conflicting path %q",
		e.Fingerprint, e.ExistingPath, e.NewPath)
}

// MissingFileError means verification found no file at the recorded path.
type MissingFileError struct {
	Fingerprint string
	LocalPath   string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("file missing for fingerprint %s at %q", e.Fingerprint, e.LocalPath)
}

// ErrAuthRejected marks a 401/403-class response. Triggers one token
// invalidate + retry, then becomes fatal for that task only.
var ErrAuthRejected = errors.New("request rejected by auth")

// ErrServer marks a retryable 5xx response.
var ErrServer = errors.New("server error")

// ErrTokenNotFound means a rendered page contained no extractable token.
var ErrTokenNotFound = errors.New("no token found in page")

// ErrBreakerOpen means the extraction circuit breaker is refusing attempts.
var ErrBreakerOpen = errors.New("token extraction temporarily disabled after repeated failures")

// ErrLocalIO wraps disk failures (full disk, permissions). Fatal for the
// task, never retried.
var ErrLocalIO = errors.New("local io failure")

// ErrUnexpectedStatus marks a response outside the known classes (404 and
// other 4xx). Deterministic, never retried.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// ClassifyStatus maps an HTTP status code onto the taxonomy. Returns nil
// for 2xx.
func ClassifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("status %d: %w", status, ErrAuthRejected)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("status %d: %w", status, ErrServer)
	default:
		return fmt.Errorf("status %d: %w", status, ErrUnexpectedStatus)
	}
}

// Kind returns the classification string for an error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, ErrAuthRejected):
		return KindAuth
	case errors.Is(err, ErrServer):
		return KindServer
	case errors.Is(err, ErrLocalIO):
		return KindLocalIO
	default:
		var authErr *AuthExtractionError
		if errors.As(err, &authErr) {
			return KindAuth
		}
		return KindNetwork
	}
}

// Retryable reports whether a fetch error warrants another attempt with
// backoff. Auth rejections are handled separately (invalidate + single
// retry) and local IO errors are never retried.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnexpectedStatus) {
		return false
	}
	switch Kind(err) {
	case KindServer, KindNetwork:
		return !errors.Is(err, context.Canceled)
	default:
		return false
	}
}
