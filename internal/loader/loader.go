// Package loader fetches ingredient data from external food databases, normalizes it and
// merges it into the catalog. Batches always complete: every query and item ends up either in
// the success list or in the failure list.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/metrics"
	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
)

// Catalog is the storage the loader writes to.
type Catalog interface {
	// UpsertIngredient looks up the record matching candidate's normalized name and source,
	// asks decide what to do and persists the decision in one transaction.
	UpsertIngredient(ctx context.Context, candidate *models.Ingredient, decide DecideFunc) (Decision, error)
	// ResolveIngredient finds the preferred catalog ingredient for a normalized name.
	ResolveIngredient(ctx context.Context, normalizedName string) (*models.Ingredient, error)
	// UpsertRecipe creates or replaces the recipe with the same normalized name.
	UpsertRecipe(ctx context.Context, recipe *models.Recipe) (created bool, err error)
}

// Archiver stores raw provider payloads.
type Archiver interface {
	Put(ctx context.Context, raw *RawPayload) error
}

// Success is one ingredient written by a batch.
type Success struct {
	Query        string  `json:"query"`
	IngredientID uint    `json:"ingredient_id"`
	Name         string  `json:"name"`
	Outcome      Outcome `json:"outcome"`
}

// BatchResult lists what a batch stored and what failed. Coalesced holds queries that were
// skipped because an earlier query in the batch normalized to the same key. Breaker is the
// provider's circuit breaker state when the batch finished.
type BatchResult struct {
	Provider  string       `json:"provider"`
	Breaker   string       `json:"breaker"`
	Successes []Success    `json:"successes"`
	Failures  []*ItemError `json:"failures"`
	Coalesced []string     `json:"coalesced"`

	mu sync.Mutex
}

func (r *BatchResult) addSuccess(s Success) {
	r.mu.Lock()
	r.Successes = append(r.Successes, s)
	r.mu.Unlock()
}

func (r *BatchResult) addFailure(e *ItemError) {
	r.mu.Lock()
	r.Failures = append(r.Failures, e)
	r.mu.Unlock()
}

// Count returns the number of successes with the given outcome.
func (r *BatchResult) Count(o Outcome) int {
	n := 0
	for _, s := range r.Successes {
		if s.Outcome == o {
			n++
		}
	}
	return n
}

func (r *BatchResult) sort() {
	sort.SliceStable(r.Successes, func(i, j int) bool {
		if r.Successes[i].Query != r.Successes[j].Query {
			return r.Successes[i].Query < r.Successes[j].Query
		}
		return r.Successes[i].IngredientID < r.Successes[j].IngredientID
	})
	sort.SliceStable(r.Failures, func(i, j int) bool {
		if r.Failures[i].Query != r.Failures[j].Query {
			return r.Failures[i].Query < r.Failures[j].Query
		}
		return r.Failures[i].Item < r.Failures[j].Item
	})
}

// Loader runs ingestion batches against a catalog.
type Loader struct {
	catalog     Catalog
	archive     Archiver
	concurrency int
	log         zerolog.Logger

	// writeMu serializes catalog writes.
	writeMu sync.Mutex
	flight  singleflight.Group
}

type Option func(*Loader)

// WithConcurrency bounds the number of queries fetched at once.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithArchive stores every fetched payload before it is parsed.
func WithArchive(a Archiver) Option {
	return func(l *Loader) { l.archive = a }
}

func New(catalog Catalog, opts ...Option) *Loader {
	l := &Loader{
		catalog:     catalog,
		concurrency: 4,
		log:         logging.Component("loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadBatch fetches every query from src and merges the parsed ingredients into the catalog.
// Queries are compared after normalization; only the first of a duplicate set is fetched and
// the others are listed in BatchResult.Coalesced in input order. The result is never nil.
func (l *Loader) LoadBatch(ctx context.Context, src *Source, queries []string) *BatchResult {
	result := &BatchResult{Provider: src.Name(), Successes: []Success{}, Failures: []*ItemError{}, Coalesced: []string{}}
	start := time.Now()

	seen := make(map[string]struct{}, len(queries))
	var g errgroup.Group
	g.SetLimit(l.concurrency)

	for _, q := range queries {
		key := nutrition.NormalizeQuery(q)
		if key == "" {
			result.addFailure(&ItemError{Provider: src.Name(), Query: q, Err: ErrEmptyQuery})
			continue
		}
		if _, dup := seen[key]; dup {
			result.Coalesced = append(result.Coalesced, q)
			continue
		}
		seen[key] = struct{}{}

		g.Go(func() error {
			l.loadQuery(ctx, src, q, result)
			return nil
		})
	}
	_ = g.Wait()

	result.Breaker = src.BreakerState().String()
	result.sort()
	l.log.Info().
		Str("provider", src.Name()).
		Int("queries", len(seen)).
		Int("coalesced", len(result.Coalesced)).
		Int("inserted", result.Count(Inserted)).
		Int("merged", result.Count(Merged)).
		Int("flagged", result.Count(FlaggedForReview)).
		Int("failures", len(result.Failures)).
		Str("breaker", result.Breaker).
		Dur("duration", time.Since(start)).
		Msg("batch loaded")
	return result
}

func (l *Loader) loadQuery(ctx context.Context, src *Source, query string, result *BatchResult) {
	raw, err := l.fetch(ctx, src, query)
	if err != nil {
		l.log.Warn().Err(err).Str("provider", src.Name()).Str("query", query).Msg("fetch failed")
		metrics.LoaderItems.WithLabelValues(src.Name(), "failed").Inc()
		result.addFailure(&ItemError{Provider: src.Name(), Query: query, Err: err})
		return
	}

	items, errs := src.Provider.Parse(raw)
	for _, err := range errs {
		metrics.LoaderItems.WithLabelValues(src.Name(), "failed").Inc()
		var ie *ItemError
		if !errors.As(err, &ie) {
			ie = &ItemError{Provider: src.Name(), Err: err}
		}
		if ie.Query == "" {
			ie.Query = query
		}
		result.addFailure(ie)
	}

	for i := range items {
		item := &items[i]
		d, err := l.store(ctx, src, item)
		if err != nil {
			metrics.LoaderItems.WithLabelValues(src.Name(), "failed").Inc()
			result.addFailure(&ItemError{Provider: src.Name(), Query: query, Item: item.Name, Err: err})
			continue
		}
		metrics.LoaderItems.WithLabelValues(src.Name(), d.Outcome.String()).Inc()
		result.addSuccess(Success{
			Query:        query,
			IngredientID: d.Ingredient.ID,
			Name:         d.Ingredient.Name,
			Outcome:      d.Outcome,
		})
	}
}

func (l *Loader) store(ctx context.Context, src *Source, candidate *models.Ingredient) (Decision, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	return l.catalog.UpsertIngredient(ctx, candidate, func(existing *models.Ingredient) Decision {
		return Dedup(candidate, existing, src.Authoritative)
	})
}

// fetch coalesces concurrent fetches of the same provider query.
func (l *Loader) fetch(ctx context.Context, src *Source, query string) (*RawPayload, error) {
	key := src.Name() + ":" + nutrition.NormalizeQuery(query)
	v, err, shared := l.flight.Do(key, func() (interface{}, error) {
		raw, err := l.fetchWithRetry(ctx, src, query)
		if err != nil {
			return nil, err
		}
		if l.archive != nil {
			if aerr := l.archive.Put(ctx, raw); aerr != nil {
				l.log.Warn().Err(aerr).Str("provider", src.Name()).Str("query", query).Msg("archiving payload failed")
			}
		}
		return raw, nil
	})
	if shared {
		l.log.Debug().Str("key", key).Msg("fetch coalesced")
	}
	if err != nil {
		return nil, err
	}
	return v.(*RawPayload), nil
}

// fetchWithRetry calls the provider through the source's limiter, quota and breaker, retrying
// rate limits and transient failures with exponential backoff.
func (l *Loader) fetchWithRetry(ctx context.Context, src *Source, query string) (*RawPayload, error) {
	name := src.Name()
	for attempt := 0; ; attempt++ {
		if err := src.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if src.quota != nil {
			ok, err := src.quota.Allow(ctx, name)
			if err != nil {
				l.log.Warn().Err(err).Str("provider", name).Msg("quota check failed, allowing request")
			} else if !ok {
				metrics.ProviderFetches.WithLabelValues(name, "quota_exceeded").Inc()
				return nil, fmt.Errorf("%w: daily quota for %s exhausted", ErrRateLimited, name)
			}
		}

		start := time.Now()
		raw, err := src.breaker.Execute(func() (*RawPayload, error) {
			return src.Provider.Fetch(ctx, query)
		})
		metrics.ProviderFetchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		if err == nil {
			metrics.ProviderFetches.WithLabelValues(name, "ok").Inc()
			return raw, nil
		}
		metrics.ProviderFetches.WithLabelValues(name, fetchResult(err)).Inc()

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, name, err)
		}
		if !retryable(err) {
			return nil, err
		}
		if attempt >= src.cfg.MaxRetries {
			if errors.Is(err, ErrRateLimited) {
				return nil, fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
			}
			return nil, fmt.Errorf("%w: giving up after %d attempts: %w", ErrProviderUnavailable, attempt+1, err)
		}

		delay := src.backoff(attempt, err)
		l.log.Debug().Err(err).Str("provider", name).Str("query", query).Int("attempt", attempt+1).Dur("delay", delay).Msg("retrying fetch")

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

func fetchResult(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrTransient):
		return "transient"
	default:
		return "error"
	}
}
