package loader

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
)

// rawItem is the provider-neutral shape every provider parses into before validation.
// Nil nutrient pointers mean the provider did not report the value.
type rawItem struct {
	ExternalID string
	Name       string
	Category   string
	Calories   *float64
	Protein    *float64
	Carbs      *float64
	Fat        *float64
	Fiber      *float64
	Sugar      *float64
	Sodium     *float64 // mg
	Allergens  []string
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// canonicalize validates item and converts it into a catalog ingredient for provider.
func canonicalize(provider string, item rawItem) (models.Ingredient, error) {
	normalized := nutrition.NormalizeName(item.Name)
	if normalized == "" {
		return models.Ingredient{}, malformed("missing name")
	}
	if item.Calories == nil {
		return models.Ingredient{}, malformed("missing calories")
	}

	nutrients := []struct {
		field string
		v     *float64
	}{
		{"calories", item.Calories},
		{"protein", item.Protein},
		{"carbs", item.Carbs},
		{"fat", item.Fat},
		{"fiber", item.Fiber},
		{"sugar", item.Sugar},
		{"sodium", item.Sodium},
	}
	for _, n := range nutrients {
		if n.v != nil && *n.v < 0 {
			return models.Ingredient{}, malformed("negative %s: %v", n.field, *n.v)
		}
	}

	known, unknown := nutrition.NormalizeAllergens(item.Allergens)
	if len(unknown) > 0 {
		logging.Debug().
			Str("provider", provider).
			Str("ingredient", item.Name).
			Strs("allergens", unknown).
			Msg("dropping unknown allergens")
	}

	return models.Ingredient{
		Name:           item.Name,
		NormalizedName: normalized,
		Source:         provider,
		ExternalID:     item.ExternalID,
		Category:       item.Category,
		Calories:       value(item.Calories),
		Protein:        value(item.Protein),
		Carbs:          value(item.Carbs),
		Fat:            value(item.Fat),
		Fiber:          value(item.Fiber),
		Sugar:          value(item.Sugar),
		Sodium:         value(item.Sodium),
		Allergens:      models.StringArray(known).Union(nutrition.InferAllergens(item.Name)),
		Tags:           models.StringArray(nutrition.InferTags(item.Name, item.Category)),
	}, nil
}

// collect canonicalizes every item, turning validation failures into item errors appended
// to errs.
func collect(raw *RawPayload, items []rawItem, errs []error) ([]models.Ingredient, []error) {
	var out []models.Ingredient
	for _, item := range items {
		ing, err := canonicalize(raw.Provider, item)
		if err != nil {
			errs = append(errs, &ItemError{Provider: raw.Provider, Query: raw.Query, Item: itemLabel(item), Err: err})
			continue
		}
		out = append(out, ing)
	}
	return out, errs
}

func itemLabel(item rawItem) string {
	if item.Name != "" {
		return item.Name
	}
	return item.ExternalID
}

func payloadError(raw *RawPayload, err error) []error {
	return []error{&ItemError{Provider: raw.Provider, Query: raw.Query, Err: malformed("decode body: %v", err)}}
}

// decodeFailure records a response element that does not match the provider's item schema.
// labels are dot-separated paths tried in order to name the element.
func decodeFailure(raw *RawPayload, elem json.RawMessage, err error, labels ...string) error {
	return &ItemError{
		Provider: raw.Provider,
		Query:    raw.Query,
		Item:     rawLabel(elem, labels...),
		Err:      malformed("decode item: %v", err),
	}
}

// rawLabel returns the first string or number found at one of paths inside elem.
func rawLabel(elem json.RawMessage, paths ...string) string {
	dec := json.NewDecoder(bytes.NewReader(elem))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return ""
	}
	for _, path := range paths {
		v := doc
		for _, key := range strings.Split(path, ".") {
			m, ok := v.(map[string]any)
			if !ok {
				v = nil
				break
			}
			v = m[key]
		}
		switch x := v.(type) {
		case string:
			if x != "" {
				return x
			}
		case json.Number:
			return x.String()
		}
	}
	return ""
}
