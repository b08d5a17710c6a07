package nutrition

import (
	"math"

	"github.com/pageza/nutrimatch/backend/internal/models"
)

// Food flags derived from per-serving nutrition.
const (
	FlagHighSodium   = "high_sodium"
	FlagHighSugar    = "high_sugar"
	FlagHighFat      = "high_fat"
	FlagHighCalories = "high_calories"
	FlagHighCarbs    = "high_carbs"
	FlagLowProtein   = "low_protein"
)

type threshold struct {
	flag  string
	value func(Nutrients) float64
	limit float64
	below bool
}

// Thresholds are per serving; sodium is mg, calories kcal, everything else grams.
var thresholds = []threshold{
	{flag: FlagHighSodium, value: func(n Nutrients) float64 { return n.Sodium }, limit: 500},
	{flag: FlagHighSugar, value: func(n Nutrients) float64 { return n.Sugar }, limit: 25},
	{flag: FlagHighFat, value: func(n Nutrients) float64 { return n.Fat }, limit: 20},
	{flag: FlagHighCalories, value: func(n Nutrients) float64 { return n.Calories }, limit: 500},
	{flag: FlagHighCarbs, value: func(n Nutrients) float64 { return n.Carbs }, limit: 50},
	{flag: FlagLowProtein, value: func(n Nutrients) float64 { return n.Protein }, limit: 10, below: true},
}

// Flags returns every food flag name.
func Flags() []string {
	out := make([]string, len(thresholds))
	for i, t := range thresholds {
		out[i] = t.flag
	}
	return out
}

// IsFlag reports whether name is a known food flag.
func IsFlag(name string) bool {
	for _, t := range thresholds {
		if t.flag == name {
			return true
		}
	}
	return false
}

// Nutrients is a set of nutrition values.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
}

func (n Nutrients) scale(f float64) Nutrients {
	return Nutrients{
		Calories: n.Calories * f,
		Protein:  n.Protein * f,
		Carbs:    n.Carbs * f,
		Fat:      n.Fat * f,
		Fiber:    n.Fiber * f,
		Sugar:    n.Sugar * f,
		Sodium:   n.Sodium * f,
	}
}

func (n Nutrients) add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
		Fiber:    n.Fiber + o.Fiber,
		Sugar:    n.Sugar + o.Sugar,
		Sodium:   n.Sodium + o.Sodium,
	}
}

func round(n Nutrients) Nutrients {
	r := func(v float64) float64 { return math.Round(v*10) / 10 }
	return Nutrients{
		Calories: r(n.Calories), Protein: r(n.Protein), Carbs: r(n.Carbs), Fat: r(n.Fat),
		Fiber: r(n.Fiber), Sugar: r(n.Sugar), Sodium: r(n.Sodium),
	}
}

// Summary is the nutrition derived from a recipe's ingredient rows.
type Summary struct {
	Total      Nutrients `json:"total"`
	PerServing Nutrients `json:"per_serving"`
	Flags      []string  `json:"food_flags"`
}

// IngredientNutrients returns the per-100g values of an ingredient.
func IngredientNutrients(i *models.Ingredient) Nutrients {
	return Nutrients{
		Calories: i.Calories,
		Protein:  i.Protein,
		Carbs:    i.Carbs,
		Fat:      i.Fat,
		Fiber:    i.Fiber,
		Sugar:    i.Sugar,
		Sodium:   i.Sodium,
	}
}

// Summarize computes totals, per-serving values and food flags for r. Ingredient rows must be
// preloaded; rows without an ingredient are skipped.
func Summarize(r *models.Recipe) Summary {
	var total Nutrients
	for _, ri := range r.Ingredients {
		if ri.Ingredient == nil {
			continue
		}
		total = total.add(IngredientNutrients(ri.Ingredient).scale(ri.Grams / 100))
	}
	servings := r.Servings
	if servings < 1 {
		servings = 1
	}
	per := total.scale(1 / float64(servings))
	return Summary{
		Total:      round(total),
		PerServing: round(per),
		Flags:      FoodFlags(per),
	}
}

// FoodFlags returns the flags raised by per-serving values, in table order.
func FoodFlags(per Nutrients) []string {
	flags := []string{}
	for _, t := range thresholds {
		v := t.value(per)
		if (t.below && v < t.limit) || (!t.below && v > t.limit) {
			flags = append(flags, t.flag)
		}
	}
	return flags
}
