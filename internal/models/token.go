package models

import "time"

// TokenState tracks validation status of the current credential.
type TokenState string

const (
	TokenUnknown TokenState = "unknown"
	TokenValid   TokenState = "valid"
	TokenInvalid TokenState = "invalid"
)

// TokenRecord is the current authentication credential. A new extraction
// always supersedes the previous record; the old value is discarded.
type TokenRecord struct {
	Value           string
	ExtractedAt     time.Time
	LastValidatedAt time.Time
	State           TokenState
}

// FreshWithin reports whether the record was validated inside the freshness
// window and is still marked valid.
func (t *TokenRecord) FreshWithin(window time.Duration, now time.Time) bool {
	if t == nil || t.State != TokenValid {
		return false
	}
	return now.Sub(t.LastValidatedAt) < window
}
