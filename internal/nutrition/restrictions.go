package nutrition

import "sort"

// Ingredient tags used by the restriction table.
const (
	TagMeat      = "meat"
	TagPork      = "pork"
	TagPoultry   = "poultry"
	TagFish      = "fish"
	TagShellfish = "shellfish"
	TagDairy     = "dairy"
	TagEgg       = "egg"
	TagHoney     = "honey"
	TagGluten    = "gluten"
	TagGrain     = "grain"
	TagLegume    = "legume"
	TagHighCarb  = "high_carb"
	TagAlcohol   = "alcohol"
)

// Restrictions maps a dietary restriction to the ingredient tags it forbids.
type Restrictions map[string][]string

var defaultRestrictions = Restrictions{
	"vegetarian":  {TagMeat, TagPork, TagPoultry, TagFish, TagShellfish},
	"vegan":       {TagMeat, TagPork, TagPoultry, TagFish, TagShellfish, TagDairy, TagEgg, TagHoney},
	"pescatarian": {TagMeat, TagPork, TagPoultry},
	"gluten_free": {TagGluten},
	"dairy_free":  {TagDairy},
	"keto":        {TagGrain, TagHighCarb, TagLegume},
	"paleo":       {TagGrain, TagLegume, TagDairy},
	"halal":       {TagPork, TagAlcohol},
	"kosher":      {TagPork, TagShellfish},
}

// DefaultRestrictions returns a copy of the built-in restriction table.
func DefaultRestrictions() Restrictions {
	out := make(Restrictions, len(defaultRestrictions))
	for k, v := range defaultRestrictions {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Names returns the restriction names in the table, sorted.
func (r Restrictions) Names() []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Known reports whether name is a restriction in the table.
func (r Restrictions) Known(name string) bool {
	_, ok := r[name]
	return ok
}

// Forbidden returns the union of tags forbidden by the given restrictions. Unknown restrictions
// contribute nothing.
func (r Restrictions) Forbidden(active []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, name := range active {
		for _, tag := range r[name] {
			set[tag] = struct{}{}
		}
	}
	return set
}
