package recommend

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
)

type fakeProfiles map[uuid.UUID]*models.PreferenceProfile

func (f fakeProfiles) GetProfile(_ context.Context, id uuid.UUID) (*models.PreferenceProfile, error) {
	p, ok := f[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

type fakeCatalog struct {
	recipes []models.Recipe
	err     error
}

func (f fakeCatalog) ListRecipes(context.Context) ([]models.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Recipe, len(f.recipes))
	copy(out, f.recipes)
	return out, nil
}

var (
	peanuts = &models.Ingredient{ID: 1, Name: "peanuts", Calories: 567, Protein: 26, Fat: 49, Allergens: models.StringArray{"peanuts"}, Tags: models.StringArray{"legume"}}
	chicken = &models.Ingredient{ID: 2, Name: "chicken", Calories: 165, Protein: 31, Tags: models.StringArray{"poultry"}}
	carrot  = &models.Ingredient{ID: 3, Name: "carrot", Calories: 41, Protein: 1, Carbs: 10}
	lentils = &models.Ingredient{ID: 4, Name: "lentils", Calories: 116, Protein: 9, Carbs: 20, Tags: models.StringArray{"legume"}}
	salt    = &models.Ingredient{ID: 5, Name: "salt", Sodium: 38000}
	shrimp  = &models.Ingredient{ID: 6, Name: "shrimp", Calories: 99, Protein: 24, Allergens: models.StringArray{"crustaceans"}, Tags: models.StringArray{"shellfish"}}
)

func recipe(id uint, cuisine string, lines ...models.RecipeIngredient) models.Recipe {
	return models.Recipe{ID: id, Name: cuisine, Cuisine: cuisine, Servings: 1, Ingredients: lines}
}

func line(ing *models.Ingredient, grams float64) models.RecipeIngredient {
	return models.RecipeIngredient{IngredientID: ing.ID, Ingredient: ing, Grams: grams}
}

func ids(out []Scored) []uint {
	res := make([]uint, len(out))
	for i, s := range out {
		res[i] = s.Recipe.ID
	}
	return res
}

func newEngine(t *testing.T, profiles fakeProfiles, cat fakeCatalog, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(profiles, cat, opts...)
	require.NoError(t, err)
	return e
}

func TestNutAllergyExcludesPeanutRecipe(t *testing.T) {
	user := uuid.New()
	profiles := fakeProfiles{user: {UserID: user, Allergies: models.StringArray{"nuts"}}}
	cat := fakeCatalog{recipes: []models.Recipe{
		recipe(1, "thai", line(peanuts, 50), line(chicken, 100)),
		recipe(2, "thai", line(carrot, 200)),
	}}

	out, err := newEngine(t, profiles, cat).Recommend(context.Background(), user, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, ids(out))
}

func TestVegetarianExcludesChicken(t *testing.T) {
	user := uuid.New()
	profiles := fakeProfiles{user: {UserID: user, DietaryRestrictions: models.StringArray{"vegetarian"}}}
	cat := fakeCatalog{recipes: []models.Recipe{
		recipe(3, "", line(chicken, 150)),
		recipe(4, "", line(carrot, 150), line(lentils, 100)),
	}}

	out, err := newEngine(t, profiles, cat).Recommend(context.Background(), user, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{4}, ids(out))
}

func TestTiesOrderedByID(t *testing.T) {
	user := uuid.New()
	profiles := fakeProfiles{user: {UserID: user}}
	cat := fakeCatalog{recipes: []models.Recipe{
		recipe(9, "", line(lentils, 100)),
		recipe(2, "", line(lentils, 100)),
		recipe(5, "", line(lentils, 100)),
	}}

	out, err := newEngine(t, profiles, cat).Recommend(context.Background(), user, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{2, 5, 9}, ids(out))
	assert.Equal(t, out[0].Score, out[2].Score)
}

func TestMissingProfile(t *testing.T) {
	out, err := newEngine(t, fakeProfiles{}, fakeCatalog{}).Recommend(context.Background(), uuid.New(), 0)
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.Nil(t, out)
}

func TestCatalogUnavailable(t *testing.T) {
	user := uuid.New()
	cause := errors.New("connection refused")
	e := newEngine(t, fakeProfiles{user: {UserID: user}}, fakeCatalog{err: cause})

	out, err := e.Recommend(context.Background(), user, 0)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, out)
}

func TestEmptyResultIsNotAnError(t *testing.T) {
	user := uuid.New()
	profiles := fakeProfiles{user: {UserID: user, Allergies: models.StringArray{"shellfish"}}}
	cat := fakeCatalog{recipes: []models.Recipe{recipe(1, "", line(shrimp, 100))}}

	out, err := newEngine(t, profiles, cat).Recommend(context.Background(), user, 0)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestScoring(t *testing.T) {
	user := uuid.New()
	target := 400.0
	profile := &models.PreferenceProfile{
		UserID:           user,
		FavoriteCuisines: models.StringArray{"Italian"},
		CalorieTarget:    &target,
	}
	cat := fakeCatalog{recipes: []models.Recipe{
		// 200 kcal, low protein
		recipe(1, "italian", line(carrot, 487.8)),
		// salty: high_sodium and low_protein
		recipe(2, "mexican", line(carrot, 200), line(salt, 5)),
		// 400 kcal on target, high_carbs
		recipe(3, "indian", line(lentils, 344.8)),
	}}
	e := newEngine(t, fakeProfiles{user: profile}, cat)

	out, err := e.Recommend(context.Background(), user, 0)
	require.NoError(t, err)
	require.Len(t, out, 3)

	byID := map[uint]float64{}
	for _, s := range out {
		byID[s.Recipe.ID] = s.Score
	}
	// cuisine 1 + alignment 0.5 - low_protein 0.5
	assert.InDelta(t, 1.0, byID[1], 0.01)
	// alignment 1 - high_carbs 0.5
	assert.InDelta(t, 0.5, byID[3], 0.01)
	// alignment 82/400 ≈ 0.205 minus two flags
	assert.InDelta(t, 0.205-1.0, byID[2], 0.01)
	assert.Equal(t, uint(2), out[2].Recipe.ID)
}

func TestOptOutRemovesPenalty(t *testing.T) {
	user := uuid.New()
	cat := fakeCatalog{recipes: []models.Recipe{recipe(1, "", line(carrot, 100), line(salt, 5))}}

	withPenalty, err := newEngine(t, fakeProfiles{user: {UserID: user}}, cat).Recommend(context.Background(), user, 0)
	require.NoError(t, err)

	optedOut := fakeProfiles{user: {UserID: user, FoodFlagOptOuts: models.StringArray{nutrition.FlagHighSodium, nutrition.FlagLowProtein}}}
	without, err := newEngine(t, optedOut, cat).Recommend(context.Background(), user, 0)
	require.NoError(t, err)

	assert.InDelta(t, -1.0, withPenalty[0].Score, 1e-9)
	assert.InDelta(t, 0.0, without[0].Score, 1e-9)
}

func TestCustomRestrictionsAndWeights(t *testing.T) {
	user := uuid.New()
	profiles := fakeProfiles{user: {UserID: user, DietaryRestrictions: models.StringArray{"no_legumes"}, FavoriteCuisines: models.StringArray{"greek"}}}
	cat := fakeCatalog{recipes: []models.Recipe{
		recipe(1, "greek", line(lentils, 100)),
		recipe(2, "greek", line(chicken, 100)),
	}}

	e := newEngine(t, profiles, cat,
		WithRestrictions(nutrition.Restrictions{"no_legumes": {nutrition.TagLegume}}),
		WithWeights(Weights{CuisineMatch: 3}),
	)
	assert.Equal(t, Weights{CuisineMatch: 3}, e.Weights())
	out, err := e.Recommend(context.Background(), user, 0)
	require.NoError(t, err)
	require.Equal(t, []uint{2}, ids(out))
	assert.InDelta(t, 3.0, out[0].Score, 1e-9)
}

func TestDefaultWeightsInUse(t *testing.T) {
	e := newEngine(t, fakeProfiles{}, fakeCatalog{})
	assert.Equal(t, DefaultWeights(), e.Weights())
}

func TestInvalidWeights(t *testing.T) {
	_, err := NewEngine(fakeProfiles{}, fakeCatalog{}, WithWeights(Weights{CuisineMatch: -1}))
	assert.Error(t, err)
}

func TestLimit(t *testing.T) {
	user := uuid.New()
	var recipes []models.Recipe
	for i := 1; i <= 60; i++ {
		recipes = append(recipes, recipe(uint(i), "", line(lentils, 100)))
	}
	e := newEngine(t, fakeProfiles{user: {UserID: user}}, fakeCatalog{recipes: recipes})

	for limit, want := range map[int]int{0: DefaultLimit, -3: DefaultLimit, 5: 5, 500: MaxLimit} {
		out, err := e.Recommend(context.Background(), user, limit)
		require.NoError(t, err)
		assert.Len(t, out, want, "limit %d", limit)
	}
}

func TestMissingIngredientRowIsExcluded(t *testing.T) {
	r := recipe(1, "", models.RecipeIngredient{IngredientID: 99, Grams: 10})
	e := newEngine(t, fakeProfiles{}, fakeCatalog{})
	assert.Empty(t, e.Rank(&models.PreferenceProfile{}, []models.Recipe{r}))
}

// randomCatalog builds recipes from a fixed ingredient pool.
func randomCatalog(rng *rand.Rand, n int) []models.Recipe {
	pool := []*models.Ingredient{peanuts, chicken, carrot, lentils, salt, shrimp,
		{ID: 7, Name: "milk", Calories: 42, Protein: 3.4, Allergens: models.StringArray{"milk"}, Tags: models.StringArray{"dairy"}},
		{ID: 8, Name: "bread", Calories: 265, Carbs: 49, Allergens: models.StringArray{"gluten", "wheat"}, Tags: models.StringArray{"gluten", "grain"}},
		{ID: 9, Name: "almonds", Calories: 579, Protein: 21, Allergens: models.StringArray{"tree_nuts"}},
	}
	cuisines := []string{"italian", "thai", "mexican", ""}
	recipes := make([]models.Recipe, n)
	for i := range recipes {
		r := recipe(uint(i+1), cuisines[rng.Intn(len(cuisines))])
		r.Servings = 1 + rng.Intn(4)
		for j := 0; j < 1+rng.Intn(4); j++ {
			r.Ingredients = append(r.Ingredients, line(pool[rng.Intn(len(pool))], float64(10+rng.Intn(300))))
		}
		recipes[i] = r
	}
	return recipes
}

func TestAllergenSafetyProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	allergies := []string{"nuts", "shellfish", "dairy", "gluten", "peanuts", "sesame", "fish"}
	e := newEngine(t, fakeProfiles{}, fakeCatalog{})

	for trial := 0; trial < 200; trial++ {
		var profile models.PreferenceProfile
		for _, a := range allergies {
			if rng.Intn(3) == 0 {
				profile.Allergies = append(profile.Allergies, a)
			}
		}
		expanded, _ := nutrition.ExpandAllergies(profile.Allergies)

		for _, s := range e.Rank(&profile, randomCatalog(rng, 30)) {
			for _, ri := range s.Recipe.Ingredients {
				for _, a := range ri.Ingredient.Allergens {
					assert.NotContains(t, expanded, a, "trial %d recipe %d", trial, s.Recipe.ID)
				}
			}
		}
	}
}

func TestDeterminismProperty(t *testing.T) {
	user := uuid.New()
	target := 500.0
	profile := &models.PreferenceProfile{
		UserID:           user,
		FavoriteCuisines: models.StringArray{"thai"},
		CalorieTarget:    &target,
	}
	catalog := randomCatalog(rand.New(rand.NewSource(7)), 80)
	e := newEngine(t, fakeProfiles{user: profile}, fakeCatalog{recipes: catalog})

	first, err := e.Recommend(context.Background(), user, MaxLimit)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := e.Recommend(context.Background(), user, MaxLimit)
		require.NoError(t, err)
		assert.Equal(t, ids(first), ids(again))
	}

	// input order must not matter
	shuffled := append([]models.Recipe(nil), catalog...)
	rand.New(rand.NewSource(1)).Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	e2 := newEngine(t, fakeProfiles{user: profile}, fakeCatalog{recipes: shuffled})
	other, err := e2.Recommend(context.Background(), user, MaxLimit)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(other))
}

func TestAlignment(t *testing.T) {
	cal, prot := 500.0, 30.0
	a, ok := Alignment(nutrition.Nutrients{Calories: 500, Protein: 15}, &cal, &prot)
	require.True(t, ok)
	assert.InDelta(t, 0.75, a, 1e-9)

	a, ok = Alignment(nutrition.Nutrients{Calories: 2000}, &cal, nil)
	require.True(t, ok)
	assert.Zero(t, a)

	_, ok = Alignment(nutrition.Nutrients{}, nil, nil)
	assert.False(t, ok)
}

func TestSimilarRecipes(t *testing.T) {
	target := recipe(1, "", line(lentils, 200))
	candidates := []models.Recipe{
		target,
		recipe(2, "", line(salt, 5)),
		recipe(3, "", line(lentils, 400)),
		recipe(4, "", line(lentils, 100), line(carrot, 50)),
	}

	out := SimilarRecipes(&target, candidates, 2)
	require.Len(t, out, 2)
	assert.Equal(t, uint(3), out[0].Recipe.ID)
	assert.InDelta(t, 1.0, out[0].Similarity, 1e-6)
	assert.Equal(t, uint(4), out[1].Recipe.ID)
}
