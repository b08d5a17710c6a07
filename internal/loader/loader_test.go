package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrimatch/backend/internal/models"
)

func fastConfig() SourceConfig {
	return SourceConfig{
		RequestsPerSecond: 1000,
		Burst:             100,
		MaxRetries:        3,
		RetryBaseDelay:    time.Millisecond,
		MaxRetryDelay:     5 * time.Millisecond,
	}
}

func fixtures() map[string][]rawItem {
	return map[string][]rawItem{
		"peanuts": {
			{ExternalID: "1", Name: "Peanuts, raw", Calories: f(567), Protein: f(25.8), Fat: f(49.2)},
		},
		"chicken": {
			{ExternalID: "2", Name: "Chicken breast", Calories: f(165), Protein: f(31)},
			{ExternalID: "3", Name: "", Calories: f(100)},
			{ExternalID: "4", Name: "Chicken thigh", Calories: f(-5)},
		},
	}
}

func TestLoadBatchPartialSuccess(t *testing.T) {
	cat := newMemCatalog()
	p := &stubProvider{name: "usda", results: fixtures()}
	p.fetch = func(_ int, q string) (*RawPayload, error) {
		if q == "boom" {
			return nil, fmt.Errorf("%w: bad request", ErrRequestRejected)
		}
		return &RawPayload{Provider: "usda", Query: q, Body: []byte(q)}, nil
	}

	l := New(cat, WithConcurrency(2))
	res := l.LoadBatch(context.Background(), NewSource(p, fastConfig()), []string{"peanuts", "chicken", "boom", "  "})

	require.Len(t, res.Successes, 2)
	assert.Equal(t, 2, res.Count(Inserted))
	require.Len(t, res.Failures, 4)

	var malformedCount, rejected, empty int
	for _, fl := range res.Failures {
		switch {
		case errors.Is(fl, ErrMalformedData):
			malformedCount++
		case errors.Is(fl, ErrRequestRejected):
			rejected++
		case errors.Is(fl, ErrEmptyQuery):
			empty++
		}
	}
	assert.Equal(t, 2, malformedCount)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 1, empty)
	assert.Equal(t, 2, cat.count())
}

func TestLoadBatchIsIdempotent(t *testing.T) {
	cat := newMemCatalog()
	p := &stubProvider{name: "usda", results: fixtures()}
	src := NewSource(p, fastConfig())
	l := New(cat)

	first := l.LoadBatch(context.Background(), src, []string{"peanuts"})
	second := l.LoadBatch(context.Background(), src, []string{"peanuts"})

	assert.Equal(t, 1, first.Count(Inserted))
	assert.Equal(t, 1, second.Count(Merged))
	assert.Equal(t, first.Successes[0].IngredientID, second.Successes[0].IngredientID)
	assert.Equal(t, 1, cat.count())
}

func TestLoadBatchCanonicalizesItems(t *testing.T) {
	cat := newMemCatalog()
	p := &stubProvider{name: "usda", results: map[string][]rawItem{
		"pb": {{Name: "Peanut Butter, smooth", Calories: f(588), Allergens: []string{"en:milk", "moonrock"}}},
	}}
	l := New(cat)
	res := l.LoadBatch(context.Background(), NewSource(p, fastConfig()), []string{"pb"})
	require.Len(t, res.Successes, 1)

	ing, err := cat.ResolveIngredient(context.Background(), "peanut butter smooth")
	require.NoError(t, err)
	assert.Equal(t, "usda", ing.Source)
	assert.Equal(t, models.StringArray{"milk", "peanuts"}, ing.Allergens)
	assert.Contains(t, ing.Tags, "legume")
}

func TestLoadBatchDeduplicatesQueries(t *testing.T) {
	cat := newMemCatalog()
	p := &stubProvider{name: "usda", results: fixtures()}
	l := New(cat, WithConcurrency(4))

	res := l.LoadBatch(context.Background(), NewSource(p, fastConfig()), []string{"Peanuts", "chicken", "peanuts ", "PEANUTS"})
	assert.Equal(t, int32(2), p.calls.Load())
	assert.Equal(t, []string{"peanuts ", "PEANUTS"}, res.Coalesced)
	assert.Equal(t, 2, res.Count(Inserted))
}

func TestLoadBatchCoalescedIsEmptyWithoutDuplicates(t *testing.T) {
	l := New(newMemCatalog())
	res := l.LoadBatch(context.Background(), NewSource(&stubProvider{name: "usda", results: fixtures()}, fastConfig()), []string{"peanuts"})
	require.NotNil(t, res.Coalesced)
	assert.Empty(t, res.Coalesced)
	assert.Equal(t, "closed", res.Breaker)
}

func TestLoadBatchRetriesRateLimit(t *testing.T) {
	cat := newMemCatalog()
	p := &stubProvider{name: "usda", results: fixtures()}
	p.fetch = func(call int, q string) (*RawPayload, error) {
		if call <= 2 {
			return nil, &RateLimitError{Provider: "usda", RetryAfter: time.Millisecond}
		}
		return &RawPayload{Provider: "usda", Query: q, Body: []byte(q)}, nil
	}

	res := New(cat).LoadBatch(context.Background(), NewSource(p, fastConfig()), []string{"peanuts"})
	assert.Empty(t, res.Failures)
	assert.Len(t, res.Successes, 1)
	assert.Equal(t, int32(3), p.calls.Load())
}

func TestLoadBatchRateLimitExhausted(t *testing.T) {
	p := &stubProvider{name: "usda"}
	p.fetch = func(int, string) (*RawPayload, error) {
		return nil, &RateLimitError{Provider: "usda"}
	}
	cfg := fastConfig()
	cfg.MaxRetries = 2

	res := New(newMemCatalog()).LoadBatch(context.Background(), NewSource(p, cfg), []string{"peanuts"})
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0], ErrRateLimited)
	assert.Equal(t, int32(3), p.calls.Load())
}

func TestLoadBatchTransientExhaustedIsUnavailable(t *testing.T) {
	p := &stubProvider{name: "usda"}
	p.fetch = func(int, string) (*RawPayload, error) {
		return nil, fmt.Errorf("%w: status 503", ErrTransient)
	}
	cfg := fastConfig()
	cfg.MaxRetries = 1

	res := New(newMemCatalog()).LoadBatch(context.Background(), NewSource(p, cfg), []string{"peanuts"})
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0], ErrProviderUnavailable)
	assert.ErrorIs(t, res.Failures[0], ErrTransient)
}

func TestLoadBatchDoesNotRetryRejected(t *testing.T) {
	p := &stubProvider{name: "usda"}
	p.fetch = func(int, string) (*RawPayload, error) {
		return nil, fmt.Errorf("%w: status 401", ErrRequestRejected)
	}
	res := New(newMemCatalog()).LoadBatch(context.Background(), NewSource(p, fastConfig()), []string{"peanuts"})
	require.Len(t, res.Failures, 1)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestBreakerOpensOnOutage(t *testing.T) {
	p := &stubProvider{name: "usda"}
	p.fetch = func(int, string) (*RawPayload, error) {
		return nil, fmt.Errorf("%w: status 502", ErrTransient)
	}
	cfg := fastConfig()
	cfg.MaxRetries = 0
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	src := NewSource(p, cfg)
	l := New(newMemCatalog(), WithConcurrency(1))

	first := l.LoadBatch(context.Background(), src, []string{"a", "b"})
	assert.Equal(t, "open", first.Breaker)
	res := l.LoadBatch(context.Background(), src, []string{"c"})
	assert.Equal(t, "open", res.Breaker)

	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0], ErrProviderUnavailable)
	assert.Equal(t, int32(2), p.calls.Load(), "open breaker must not reach the provider")
}

type denyQuota struct{}

func (denyQuota) Allow(context.Context, string) (bool, error) { return false, nil }

type brokenQuota struct{}

func (brokenQuota) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestQuota(t *testing.T) {
	p := &stubProvider{name: "usda", results: fixtures()}
	res := New(newMemCatalog()).LoadBatch(context.Background(), NewSource(p, fastConfig(), WithQuota(denyQuota{})), []string{"peanuts"})
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0], ErrRateLimited)
	assert.Zero(t, p.calls.Load())

	res = New(newMemCatalog()).LoadBatch(context.Background(), NewSource(p, fastConfig(), WithQuota(brokenQuota{})), []string{"peanuts"})
	assert.Empty(t, res.Failures, "quota errors fail open")
}

func TestConcurrentBatchesCoalesceFetches(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 4)
	p := &stubProvider{name: "usda", results: fixtures()}
	p.fetch = func(_ int, q string) (*RawPayload, error) {
		started <- struct{}{}
		<-release
		return &RawPayload{Provider: "usda", Query: q, Body: []byte("peanuts")}, nil
	}
	src := NewSource(p, fastConfig())
	cat := newMemCatalog()
	l := New(cat)

	var wg sync.WaitGroup
	results := make([]*BatchResult, 2)
	for i, q := range []string{"Peanuts", "peanuts"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = l.LoadBatch(context.Background(), src, []string{q})
		}()
	}

	<-started
	// give the second batch time to join the in-flight fetch
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), p.calls.Load())
	assert.Equal(t, 1, cat.count())
	for _, r := range results {
		assert.Empty(t, r.Failures)
		assert.Len(t, r.Successes, 1)
	}
}

func TestArchiveFailureIsNotFatal(t *testing.T) {
	arch := &memArchive{err: errors.New("s3 unavailable")}
	p := &stubProvider{name: "usda", results: fixtures()}

	res := New(newMemCatalog(), WithArchive(arch)).LoadBatch(context.Background(), NewSource(p, fastConfig()), []string{"peanuts"})
	assert.Empty(t, res.Failures)
	assert.Equal(t, []string{"peanuts"}, arch.puts)
}

func TestCatalogErrorsArePerItem(t *testing.T) {
	cat := newMemCatalog()
	cat.failUpsert = errors.New("db locked")
	p := &stubProvider{name: "usda", results: fixtures()}

	res := New(cat).LoadBatch(context.Background(), NewSource(p, fastConfig()), []string{"peanuts", "chicken"})
	assert.Empty(t, res.Successes)
	assert.Len(t, res.Failures, 4)
}

func TestNewSourceDefaults(t *testing.T) {
	src := NewSource(&stubProvider{name: "edamam"}, SourceConfig{Authoritative: true})
	assert.Equal(t, "edamam", src.Name())
	assert.True(t, src.Authoritative)
	assert.Equal(t, DefaultSourceConfig().RetryBaseDelay, src.cfg.RetryBaseDelay)

	assert.Equal(t, 4*time.Second, src.backoff(2, errors.New("x")))
	assert.Equal(t, 7*time.Second, src.backoff(0, &RateLimitError{RetryAfter: 7 * time.Second}))
	assert.Equal(t, 30*time.Second, src.backoff(10, errors.New("x")))
}

func TestBackoffCapsLargeAttempts(t *testing.T) {
	src := NewSource(&stubProvider{name: "usda"}, SourceConfig{RetryBaseDelay: time.Second, MaxRetryDelay: 30 * time.Second, MaxRetries: 64})
	for _, attempt := range []int{5, 33, 40, 63, 64, 1000} {
		assert.Equal(t, 30*time.Second, src.backoff(attempt, errors.New("x")), "attempt %d", attempt)
	}
	assert.Equal(t, 16*time.Second, src.backoff(4, errors.New("x")))
}
