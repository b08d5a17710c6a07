package nutrition

import (
	"math"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pageza/nutrimatch/backend/internal/models"
)

// VectorDims is the length of a recipe nutrition vector.
const VectorDims = 7

// Reference daily values used to put nutrients on a comparable scale.
var dailyValues = Nutrients{
	Calories: 2000,
	Protein:  50,
	Carbs:    275,
	Fat:      78,
	Fiber:    28,
	Sugar:    50,
	Sodium:   2300,
}

// Vector returns per-serving nutrition as fractions of daily values.
func Vector(per Nutrients) []float32 {
	return []float32{
		float32(per.Calories / dailyValues.Calories),
		float32(per.Protein / dailyValues.Protein),
		float32(per.Carbs / dailyValues.Carbs),
		float32(per.Fat / dailyValues.Fat),
		float32(per.Fiber / dailyValues.Fiber),
		float32(per.Sugar / dailyValues.Sugar),
		float32(per.Sodium / dailyValues.Sodium),
	}
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero vector.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// RecipeVector computes the stored nutrition vector of r. Ingredients must be loaded.
func RecipeVector(r *models.Recipe) *pgvector.Vector {
	v := pgvector.NewVector(Vector(Summarize(r).PerServing))
	return &v
}
