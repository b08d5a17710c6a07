// Package nutrition holds the static lookup tables used by the loader and the recommendation
// engine (allergen vocabulary, restriction rules, food flag thresholds) and the helpers that
// derive recipe nutrition from them.
package nutrition

import (
	"sort"
	"strings"
)

// Known allergens. Every Ingredient.Allergens entry is one of these.
const (
	AllergenMilk        = "milk"
	AllergenEggs        = "eggs"
	AllergenFish        = "fish"
	AllergenCrustaceans = "crustaceans"
	AllergenMolluscs    = "molluscs"
	AllergenPeanuts     = "peanuts"
	AllergenTreeNuts    = "tree_nuts"
	AllergenWheat       = "wheat"
	AllergenGluten      = "gluten"
	AllergenSoy         = "soy"
	AllergenSesame      = "sesame"
	AllergenMustard     = "mustard"
	AllergenCelery      = "celery"
	AllergenLupin       = "lupin"
	AllergenSulphites   = "sulphites"
)

var vocabulary = map[string]struct{}{
	AllergenMilk: {}, AllergenEggs: {}, AllergenFish: {}, AllergenCrustaceans: {},
	AllergenMolluscs: {}, AllergenPeanuts: {}, AllergenTreeNuts: {}, AllergenWheat: {},
	AllergenGluten: {}, AllergenSoy: {}, AllergenSesame: {}, AllergenMustard: {},
	AllergenCelery: {}, AllergenLupin: {}, AllergenSulphites: {},
}

// allergenAliases maps provider spellings onto the vocabulary.
var allergenAliases = map[string]string{
	"dairy":                         AllergenMilk,
	"lactose":                       AllergenMilk,
	"milk":                          AllergenMilk,
	"egg":                           AllergenEggs,
	"eggs":                          AllergenEggs,
	"peanut":                        AllergenPeanuts,
	"peanuts":                       AllergenPeanuts,
	"tree nut":                      AllergenTreeNuts,
	"tree nuts":                     AllergenTreeNuts,
	"tree-nuts":                     AllergenTreeNuts,
	"nuts":                          AllergenTreeNuts,
	"nut":                           AllergenTreeNuts,
	"shellfish":                     AllergenCrustaceans,
	"crustacean":                    AllergenCrustaceans,
	"crustacean shellfish":          AllergenCrustaceans,
	"mollusc":                       AllergenMolluscs,
	"mollusk":                       AllergenMolluscs,
	"molluscs":                      AllergenMolluscs,
	"wheat":                         AllergenWheat,
	"gluten":                        AllergenGluten,
	"soy":                           AllergenSoy,
	"soybeans":                      AllergenSoy,
	"soya":                          AllergenSoy,
	"sesame":                        AllergenSesame,
	"sesame seeds":                  AllergenSesame,
	"mustard":                       AllergenMustard,
	"celery":                        AllergenCelery,
	"lupin":                         AllergenLupin,
	"lupine":                        AllergenLupin,
	"sulphites":                     AllergenSulphites,
	"sulfites":                      AllergenSulphites,
	"sulphur dioxide and sulphites": AllergenSulphites,
	"fish":                          AllergenFish,
}

// allergyGroups expands a user-facing allergy onto vocabulary entries.
var allergyGroups = map[string][]string{
	"nuts":      {AllergenPeanuts, AllergenTreeNuts},
	"shellfish": {AllergenCrustaceans, AllergenMolluscs},
	"seafood":   {AllergenFish, AllergenCrustaceans, AllergenMolluscs},
	"dairy":     {AllergenMilk},
	"lactose":   {AllergenMilk},
	"gluten":    {AllergenGluten, AllergenWheat},
	"egg":       {AllergenEggs},
}

// IsKnownAllergen reports whether a is in the vocabulary.
func IsKnownAllergen(a string) bool {
	_, ok := vocabulary[a]
	return ok
}

// Vocabulary returns the known allergens, sorted.
func Vocabulary() []string {
	out := make([]string, 0, len(vocabulary))
	for a := range vocabulary {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func cleanAllergen(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	// Open Food Facts prefixes taxonomy entries with a language code ("en:milk").
	if i := strings.Index(s, ":"); i > 0 && i <= 3 {
		s = s[i+1:]
	}
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// CanonicalAllergen maps a provider allergen string onto the vocabulary.
func CanonicalAllergen(raw string) (string, bool) {
	s := cleanAllergen(raw)
	if s == "" {
		return "", false
	}
	if a, ok := allergenAliases[s]; ok {
		return a, true
	}
	if v := strings.ReplaceAll(s, " ", "_"); IsKnownAllergen(v) {
		return v, true
	}
	return "", false
}

// NormalizeAllergens maps provider allergen strings onto the vocabulary. The result is sorted and
// de-duplicated; strings with no mapping are returned separately so callers can log them.
func NormalizeAllergens(raw []string) (known []string, unknown []string) {
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		a, ok := CanonicalAllergen(r)
		if !ok {
			if strings.TrimSpace(r) != "" {
				unknown = append(unknown, r)
			}
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		known = append(known, a)
	}
	sort.Strings(known)
	return known, unknown
}

// ExpandAllergies turns a user's allergy list into the set of vocabulary entries a recipe must not
// contain. Entries that match neither a group nor the vocabulary are returned as unknown.
func ExpandAllergies(allergies []string) (map[string]struct{}, []string) {
	set := make(map[string]struct{})
	var unknown []string
	for _, raw := range allergies {
		s := cleanAllergen(raw)
		if group, ok := allergyGroups[s]; ok {
			for _, a := range group {
				set[a] = struct{}{}
			}
			continue
		}
		if a, ok := CanonicalAllergen(s); ok {
			set[a] = struct{}{}
			continue
		}
		if s != "" {
			unknown = append(unknown, raw)
		}
	}
	return set, unknown
}

// SortedSet returns the members of set in ascending order.
func SortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
