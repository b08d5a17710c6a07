package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRateLimited means the provider refused the request because of rate limiting.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrMalformedData marks a payload or item that could not be turned into an ingredient.
	ErrMalformedData = errors.New("malformed provider data")
	// ErrTransient marks 5xx responses and network failures.
	ErrTransient = errors.New("transient provider error")
	// ErrRequestRejected marks non-retryable 4xx responses.
	ErrRequestRejected = errors.New("provider rejected request")
	// ErrProviderUnavailable is returned when the circuit is open or retries ran out.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrIngredientNotFound is returned when a recipe names an ingredient missing from the catalog.
	ErrIngredientNotFound = errors.New("ingredient not found")
	// ErrInvalidRecipe marks a recipe definition that fails validation.
	ErrInvalidRecipe = errors.New("invalid recipe")
	// ErrEmptyQuery is recorded for blank queries in a batch.
	ErrEmptyQuery = errors.New("empty query")
)

// RateLimitError is returned for HTTP 429 responses. It matches ErrRateLimited.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// ItemError records a failure for one query or one item inside a provider response.
type ItemError struct {
	Provider string
	Query    string
	Item     string
	Err      error
}

func (e *ItemError) Error() string {
	switch {
	case e.Item != "":
		return fmt.Sprintf("%s query %q item %q: %v", e.Provider, e.Query, e.Item, e.Err)
	case e.Query != "":
		return fmt.Sprintf("%s query %q: %v", e.Provider, e.Query, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the failure for API responses.
func (e *ItemError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Provider string `json:"provider,omitempty"`
		Query    string `json:"query,omitempty"`
		Item     string `json:"item,omitempty"`
		Kind     string `json:"kind"`
		Error    string `json:"error"`
	}{
		Provider: e.Provider,
		Query:    e.Query,
		Item:     e.Item,
		Kind:     errorKind(e.Err),
		Error:    e.Err.Error(),
	})
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrMalformedData):
		return "malformed_data"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, ErrTransient):
		return "transient"
	case errors.Is(err, ErrRequestRejected):
		return "rejected"
	case errors.Is(err, ErrIngredientNotFound):
		return "ingredient_not_found"
	case errors.Is(err, ErrInvalidRecipe):
		return "invalid_recipe"
	case errors.Is(err, ErrEmptyQuery):
		return "empty_query"
	default:
		return "error"
	}
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedData, fmt.Sprintf(format, args...))
}

func retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}
