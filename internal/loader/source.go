package loader

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/metrics"
)

// Quota bounds provider calls over a longer window than the rate limiter, such as a daily
// API allowance.
type Quota interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SourceConfig tunes the resources attached to one provider.
type SourceConfig struct {
	Authoritative     bool
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryBaseDelay    time.Duration
	MaxRetryDelay     time.Duration
	// Breaker opens once BreakerMinRequests calls were made in BreakerInterval and at least
	// BreakerFailureRatio of them failed; it half-opens after BreakerTimeout.
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerInterval     time.Duration
	BreakerTimeout      time.Duration
}

func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		RequestsPerSecond:   2,
		Burst:               1,
		MaxRetries:          3,
		RetryBaseDelay:      time.Second,
		MaxRetryDelay:       30 * time.Second,
		BreakerMinRequests:  10,
		BreakerFailureRatio: 0.6,
		BreakerInterval:     time.Minute,
		BreakerTimeout:      2 * time.Minute,
	}
}

// Source is a provider together with its own rate limiter, circuit breaker and quota.
// Sources are independent; nothing is shared between providers.
type Source struct {
	Provider      Provider
	Authoritative bool

	cfg     SourceConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*RawPayload]
	quota   Quota
}

type SourceOption func(*Source)

// WithQuota attaches a quota checked before each provider call.
func WithQuota(q Quota) SourceOption {
	return func(s *Source) { s.quota = q }
}

// NewSource wraps p with the resources described by cfg. Zero fields other than MaxRetries
// fall back to DefaultSourceConfig.
func NewSource(p Provider, cfg SourceConfig, opts ...SourceOption) *Source {
	def := DefaultSourceConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = def.RetryBaseDelay
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = def.MaxRetryDelay
	}
	if cfg.BreakerMinRequests == 0 {
		cfg.BreakerMinRequests = def.BreakerMinRequests
	}
	if cfg.BreakerFailureRatio <= 0 {
		cfg.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if cfg.BreakerInterval <= 0 {
		cfg.BreakerInterval = def.BreakerInterval
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}

	s := &Source{
		Provider:      p,
		Authoritative: cfg.Authoritative,
		cfg:           cfg,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
	s.breaker = newBreaker(p.Name(), cfg)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provider name.
func (s *Source) Name() string {
	return s.Provider.Name()
}

// BreakerState reports the circuit breaker state.
func (s *Source) BreakerState() gobreaker.State {
	return s.breaker.State()
}

func newBreaker(name string, cfg SourceConfig) *gobreaker.CircuitBreaker[*RawPayload] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[*RawPayload](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
		// Only outages count against the breaker; rate limits and bad requests do not.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrTransient)
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// backoff returns the wait before retry number attempt (0-based). Doubling stops at
// MaxRetryDelay.
func (s *Source) backoff(attempt int, err error) time.Duration {
	delay := s.cfg.RetryBaseDelay
	for i := 0; i < attempt && delay < s.cfg.MaxRetryDelay; i++ {
		delay *= 2
	}
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		delay = rl.RetryAfter
	}
	if delay > s.cfg.MaxRetryDelay {
		delay = s.cfg.MaxRetryDelay
	}
	return delay
}
