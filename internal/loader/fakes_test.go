package loader

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pageza/nutrimatch/backend/internal/models"
)

// memCatalog is an in-memory Catalog.
type memCatalog struct {
	mu          sync.Mutex
	nextID      uint
	ingredients map[string]*models.Ingredient
	reviews     []models.ReviewItem
	recipes     map[string]*models.Recipe
	failUpsert  error
}

func newMemCatalog() *memCatalog {
	return &memCatalog{ingredients: map[string]*models.Ingredient{}, recipes: map[string]*models.Recipe{}}
}

func catalogKey(name, source string) string { return source + "|" + name }

func (c *memCatalog) UpsertIngredient(_ context.Context, cand *models.Ingredient, decide DecideFunc) (Decision, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failUpsert != nil {
		return Decision{}, c.failUpsert
	}

	k := catalogKey(cand.NormalizedName, cand.Source)
	var existing *models.Ingredient
	if e, ok := c.ingredients[k]; ok {
		cp := *e
		existing = &cp
	}
	d := decide(existing)
	if d.Outcome == Inserted {
		c.nextID++
		d.Ingredient.ID = c.nextID
	}
	if d.Changed {
		stored := *d.Ingredient
		c.ingredients[k] = &stored
	}
	if d.Review != nil {
		c.reviews = append(c.reviews, *d.Review)
	}
	return d, nil
}

func (c *memCatalog) ResolveIngredient(_ context.Context, name string) (*models.Ingredient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var best *models.Ingredient
	for _, ing := range c.ingredients {
		if ing.NormalizedName != name {
			continue
		}
		if best == nil || (ing.Authoritative && !best.Authoritative) ||
			(ing.Authoritative == best.Authoritative && ing.ID < best.ID) {
			best = ing
		}
	}
	if best == nil {
		return nil, ErrIngredientNotFound
	}
	cp := *best
	return &cp, nil
}

func (c *memCatalog) UpsertRecipe(_ context.Context, r *models.Recipe) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.recipes[r.NormalizedName]; ok {
		r.ID = prev.ID
		c.recipes[r.NormalizedName] = r
		return false, nil
	}
	c.nextID++
	r.ID = c.nextID
	c.recipes[r.NormalizedName] = r
	return true, nil
}

func (c *memCatalog) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ingredients)
}

// stubProvider serves canned results per query.
type stubProvider struct {
	name    string
	calls   atomic.Int32
	fetch   func(call int, query string) (*RawPayload, error)
	results map[string][]rawItem
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Fetch(_ context.Context, query string) (*RawPayload, error) {
	n := int(p.calls.Add(1))
	if p.fetch != nil {
		return p.fetch(n, query)
	}
	return &RawPayload{Provider: p.name, Query: query, Body: []byte(query)}, nil
}

func (p *stubProvider) Parse(raw *RawPayload) ([]models.Ingredient, []error) {
	items, ok := p.results[strings.ToLower(string(raw.Body))]
	if !ok {
		return nil, payloadError(raw, errors.New("no such fixture"))
	}
	return collect(raw, items, nil)
}

func f(v float64) *float64 { return &v }

type memArchive struct {
	mu   sync.Mutex
	puts []string
	err  error
}

func (a *memArchive) Put(_ context.Context, raw *RawPayload) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.puts = append(a.puts, raw.Query)
	return a.err
}
