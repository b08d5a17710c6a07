package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pageza/nutrimatch/backend/internal/models"
)

const maxPayloadBytes = 8 << 20

// RawPayload is an undecoded provider response.
type RawPayload struct {
	Provider    string
	Query       string
	StatusCode  int
	ContentType string
	Body        []byte
	FetchedAt   time.Time
}

// Provider is one external food data API.
type Provider interface {
	// Name identifies the provider; it is stored as Ingredient.Source.
	Name() string
	// Fetch runs a search for query. A 429 response yields a *RateLimitError; 5xx responses and
	// network failures wrap ErrTransient.
	Fetch(ctx context.Context, query string) (*RawPayload, error)
	// Parse converts a payload into canonical ingredients. Each bad item yields one error
	// wrapping ErrMalformedData; an undecodable body yields a single error.
	Parse(raw *RawPayload) ([]models.Ingredient, []error)
}

// httpClient issues GET requests for a provider and maps status codes onto loader errors.
type httpClient struct {
	name    string
	baseURL string
	client  *http.Client
}

func newHTTPClient(name, baseURL string, client *http.Client) httpClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return httpClient{name: name, baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (c httpClient) get(ctx context.Context, path string, params url.Values, query string) (*RawPayload, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrTransient, c.name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{Provider: c.name, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())}
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s returned status %d", ErrTransient, c.name, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: %s returned status %d", ErrRequestRejected, c.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading body: %w", ErrTransient, c.name, err)
	}

	return &RawPayload{
		Provider:    c.name,
		Query:       query,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
