// Package validation checks user-supplied settings and fills defaults.
package validation

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"vidarr/internal/domain/consts"
	"vidarr/internal/models"
	"vidarr/internal/utils/logging"
)

const (
	maxConcurrency = 16
	maxAttempts    = 10
)

// ValidateDownloadSettings normalizes download settings in place. Out of
// range values are clamped with a warning rather than rejected.
func ValidateDownloadSettings(s *models.DownloadSettings) error {
	if s == nil {
		return fmt.Errorf("download settings are null")
	}

	if s.BaseDir == "" {
		return fmt.Errorf("download directory is required")
	}
	if info, err := os.Stat(s.BaseDir); err == nil && !info.IsDir() {
		return fmt.Errorf("download directory %q is a file", s.BaseDir)
	}

	switch {
	case s.Concurrency <= 0:
		s.Concurrency = consts.DefaultConcurrency
	case s.Concurrency > maxConcurrency:
		logging.W("Concurrency %d too high, clamping to %d", s.Concurrency, maxConcurrency)
		s.Concurrency = maxConcurrency
	}

	if s.RateInterval < 0 {
		s.RateInterval = 0
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = consts.DefaultRequestTimeout
	}

	switch {
	case s.MaxAttempts <= 0:
		s.MaxAttempts = consts.DefaultMaxAttempts
	case s.MaxAttempts > maxAttempts:
		logging.W("Retry count %d too high, clamping to %d", s.MaxAttempts, maxAttempts)
		s.MaxAttempts = maxAttempts
	}

	if s.BackoffBase <= 0 {
		s.BackoffBase = consts.DefaultBackoffBase
	}

	return nil
}

// ValidateTokenSettings normalizes token settings in place.
func ValidateTokenSettings(s *models.TokenSettings) error {
	if s == nil {
		return fmt.Errorf("token settings are null")
	}

	if s.PageURL == "" {
		s.PageURL = consts.SiteBaseURL
	}
	u, err := url.Parse(s.PageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid token page URL %q", s.PageURL)
	}

	if s.Freshness <= 0 {
		s.Freshness = consts.DefaultTokenFreshness
	}
	if s.Freshness < time.Minute {
		logging.W("Token freshness window %v is very short, expect frequent probes", s.Freshness)
	}

	if s.MaxAttempts <= 0 {
		s.MaxAttempts = consts.DefaultMaxAttempts
	} else if s.MaxAttempts > maxAttempts {
		s.MaxAttempts = maxAttempts
	}
	if s.BackoffBase <= 0 {
		s.BackoffBase = consts.DefaultBackoffBase
	}

	return nil
}
