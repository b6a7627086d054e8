package token

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vidarr/internal/errs"
	"vidarr/internal/models"
)

// fakeStore is an in-memory TokenStore.
type fakeStore struct {
	mu  sync.Mutex
	rec *models.TokenRecord
}

func (f *fakeStore) GetCurrent() (*models.TokenRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec == nil {
		return nil, nil
	}
	c := *f.rec
	return &c, nil
}

func (f *fakeStore) Save(rec *models.TokenRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *rec
	f.rec = &c
	return nil
}

func (f *fakeStore) MarkValidated(state models.TokenState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec == nil {
		return errors.New("no token record to update")
	}
	f.rec.State = state
	if state == models.TokenValid {
		f.rec.LastValidatedAt = time.Now()
	}
	return nil
}

func (f *fakeStore) Invalidate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rec != nil {
		f.rec.State = models.TokenInvalid
		f.rec.LastValidatedAt = time.Time{}
	}
	return nil
}

// fakeProber delegates to a function and counts calls.
type fakeProber struct {
	calls atomic.Int64
	fn    func(token string) error
}

func (f *fakeProber) Probe(_ context.Context, token string) error {
	f.calls.Add(1)
	if f.fn == nil {
		return nil
	}
	return f.fn(token)
}

// fakeRenderer delegates to a function and counts calls.
type fakeRenderer struct {
	calls atomic.Int64
	fn    func() (string, error)
}

func (f *fakeRenderer) ExtractToken(_ context.Context, _ string) (string, error) {
	f.calls.Add(1)
	if f.fn == nil {
		return "AAAAAAAAAAAAAAAAAAAAAAAAAAAA", nil
	}
	return f.fn()
}

func fastSettings() models.TokenSettings {
	return models.TokenSettings{
		PageURL:     "https://example.com",
		Freshness:   30 * time.Minute,
		MaxAttempts: 2,
		BackoffBase: time.Millisecond,
	}
}

// TestGetTokenCachedFresh tests that a fresh valid token returns with no
// network activity at all.
func TestGetTokenCachedFresh(t *testing.T) {
	t.Parallel()

	store := &fakeStore{rec: &models.TokenRecord{
		Value:           "AAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		ExtractedAt:     time.Now(),
		LastValidatedAt: time.Now(),
		State:           models.TokenValid,
	}}
	prober := &fakeProber{}
	renderer := &fakeRenderer{}

	m := NewManager(store, prober, renderer, fastSettings())

	rec, err := m.GetToken(context.Background())
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if rec.Value != "AAAAAAAAAAAAAAAAAAAAAAAAAAAA" {
		t.Errorf("unexpected token value %q", rec.Value)
	}
	if prober.calls.Load() != 0 || renderer.calls.Load() != 0 {
		t.Errorf("fresh token must not touch the network: probes=%d extracts=%d",
			prober.calls.Load(), renderer.calls.Load())
	}
}

// TestGetTokenStaleRevalidatesByProbe tests that a stale token gets one
// probe and no extraction when the probe passes.
func TestGetTokenStaleRevalidatesByProbe(t *testing.T) {
	t.Parallel()

	store := &fakeStore{rec: &models.TokenRecord{
		Value:           "AAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		ExtractedAt:     time.Now().Add(-2 * time.Hour),
		LastValidatedAt: time.Now().Add(-2 * time.Hour),
		State:           models.TokenValid,
	}}
	prober := &fakeProber{}
	renderer := &fakeRenderer{}

	m := NewManager(store, prober, renderer, fastSettings())

	rec, err := m.GetToken(context.Background())
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if rec.State != models.TokenValid {
		t.Errorf("expected valid state, got %s", rec.State)
	}
	if prober.calls.Load() != 1 {
		t.Errorf("expected exactly 1 probe, got %d", prober.calls.Load())
	}
	if renderer.calls.Load() != 0 {
		t.Errorf("probe success must skip extraction, got %d extracts", renderer.calls.Load())
	}

	stored, _ := store.GetCurrent()
	if !stored.FreshWithin(30*time.Minute, time.Now()) {
		t.Error("revalidated token should be fresh again")
	}
}

// TestGetTokenProbeFailureFallsBackToExtraction tests the full fallback
// chain: rejected probe, then page extraction producing a working token.
func TestGetTokenProbeFailureFallsBackToExtraction(t *testing.T) {
	t.Parallel()

	store := &fakeStore{rec: &models.TokenRecord{
		Value:           "AAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		ExtractedAt:     time.Now().Add(-2 * time.Hour),
		LastValidatedAt: time.Now().Add(-2 * time.Hour),
		State:           models.TokenValid,
	}}
	prober := &fakeProber{fn: func(token string) error {
		if token == "BBBBBBBBBBBBBBBBBBBBBBBBBBBB" {
			return nil
		}
		return errs.ErrAuthRejected
	}}
	renderer := &fakeRenderer{fn: func() (string, error) {
		return "BBBBBBBBBBBBBBBBBBBBBBBBBBBB", nil
	}}

	m := NewManager(store, prober, renderer, fastSettings())

	rec, err := m.GetToken(context.Background())
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if rec.Value != "BBBBBBBBBBBBBBBBBBBBBBBBBBBB" {
		t.Errorf("expected freshly extracted token, got %q", rec.Value)
	}
	if renderer.calls.Load() != 1 {
		t.Errorf("expected exactly 1 extraction, got %d", renderer.calls.Load())
	}

	stored, _ := store.GetCurrent()
	if stored.State != models.TokenValid {
		t.Errorf("extracted token should be persisted valid, got %s", stored.State)
	}
}

// TestGetTokenConcurrentSingleExtraction tests that many goroutines hitting
// an empty store trigger exactly one extraction.
func TestGetTokenConcurrentSingleExtraction(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	prober := &fakeProber{}
	renderer := &fakeRenderer{fn: func() (string, error) {
		time.Sleep(10 * time.Millisecond)
		return "AAAAAAAAAAAAAAAAAAAAAAAAAAAA", nil
	}}

	m := NewManager(store, prober, renderer, fastSettings())

	const goroutines = 10
	var wg sync.WaitGroup
	errCh := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.GetToken(context.Background()); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Errorf("concurrent GetToken failed: %v", err)
	}
	if got := renderer.calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 extraction across %d goroutines, got %d", goroutines, got)
	}
}

// TestGetTokenRetriesBounded tests that extraction failures stop at the
// attempt cap and report the count.
func TestGetTokenRetriesBounded(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	prober := &fakeProber{}
	renderer := &fakeRenderer{fn: func() (string, error) {
		return "", errs.ErrTokenNotFound
	}}

	m := NewManager(store, prober, renderer, fastSettings())

	_, err := m.GetToken(context.Background())
	var authErr *errs.AuthExtractionError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthExtractionError, got %v", err)
	}
	if authErr.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", authErr.Attempts)
	}
	if renderer.calls.Load() != 2 {
		t.Errorf("expected 2 extraction calls, got %d", renderer.calls.Load())
	}
}

// TestBreakerOpensAfterRepeatedFailures tests that the circuit breaker
// refuses further extraction attempts after the failure threshold.
func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	prober := &fakeProber{}
	renderer := &fakeRenderer{fn: func() (string, error) {
		return "", errs.ErrTokenNotFound
	}}

	m := NewManager(store, prober, renderer, fastSettings())

	for i := 0; i < 3; i++ {
		if _, err := m.GetToken(context.Background()); err == nil {
			t.Fatal("expected extraction failure")
		}
	}

	callsBefore := renderer.calls.Load()

	_, err := m.GetToken(context.Background())
	if !errors.Is(err, errs.ErrBreakerOpen) {
		t.Fatalf("expected breaker-open error, got %v", err)
	}
	if renderer.calls.Load() != callsBefore {
		t.Error("open breaker must not attempt extraction")
	}
}

// TestInvalidateForcesExtraction tests that an invalidated token bypasses
// both cache and probe on the next acquisition.
func TestInvalidateForcesExtraction(t *testing.T) {
	t.Parallel()

	store := &fakeStore{rec: &models.TokenRecord{
		Value:           "AAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		ExtractedAt:     time.Now(),
		LastValidatedAt: time.Now(),
		State:           models.TokenValid,
	}}
	prober := &fakeProber{}
	renderer := &fakeRenderer{fn: func() (string, error) {
		return "BBBBBBBBBBBBBBBBBBBBBBBBBBBB", nil
	}}

	m := NewManager(store, prober, renderer, fastSettings())

	if err := m.Invalidate(context.Background()); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	rec, err := m.GetToken(context.Background())
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if rec.Value != "BBBBBBBBBBBBBBBBBBBBBBBBBBBB" {
		t.Errorf("expected re-extracted token, got %q", rec.Value)
	}
	if renderer.calls.Load() != 1 {
		t.Errorf("expected 1 extraction after invalidation, got %d", renderer.calls.Load())
	}
}

// TestBackoffDelay tests the exponential schedule and its ceiling.
func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second},
		{10, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := backoffDelay(time.Second, tt.n); got != tt.want {
			t.Errorf("backoffDelay(1s, %d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}
