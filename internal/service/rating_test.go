package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/service"
	"github.com/pageza/nutrimatch/backend/internal/testhelpers"
)

func TestRateRecipe(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	seeded := seedCatalog(t, db)
	svc := service.NewRatingService(db)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	r, err := svc.RateRecipe(ctx, alice, seeded[0].ID, 5, "  great  ")
	require.NoError(t, err)
	assert.Equal(t, 5, r.Rating)
	assert.Equal(t, "great", r.Comment)
	assert.Equal(t, alice, r.UserID)

	// rating again replaces the first one
	r, err = svc.RateRecipe(ctx, alice, seeded[0].ID, 3, "")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Rating)
	assert.Empty(t, r.Comment)

	_, err = svc.RateRecipe(ctx, bob, seeded[0].ID, 4, "")
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&models.RecipeRating{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)

	summary, err := svc.Summary(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Count)
	assert.InDelta(t, 3.5, summary.Average, 1e-9)

	empty, err := svc.Summary(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Count)
	assert.Equal(t, 0.0, empty.Average)
}

func TestRateRecipeValidation(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	seeded := seedCatalog(t, db)
	svc := service.NewRatingService(db)
	ctx := context.Background()

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := svc.RateRecipe(ctx, uuid.New(), seeded[0].ID, rating, "")
		assert.ErrorIs(t, err, service.ErrInvalidRating, "rating %d", rating)
	}
	for _, rating := range []int{1, 5} {
		_, err := svc.RateRecipe(ctx, uuid.New(), seeded[0].ID, rating, "")
		assert.NoError(t, err, "rating %d", rating)
	}

	_, err := svc.RateRecipe(ctx, uuid.New(), 9999, 4, "")
	assert.ErrorIs(t, err, service.ErrRecipeNotFound)
}

func TestSearchIngredients(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	seedCatalog(t, db)
	testhelpers.CreateIngredient(t, db, models.Ingredient{Name: "Chickpeas", Calories: 164})
	testhelpers.CreateIngredient(t, db, models.Ingredient{Name: "Smoked chicken", Calories: 180})
	svc := service.NewCatalogService(db)
	ctx := context.Background()

	got, err := svc.SearchIngredients(ctx, "  CHICK ", 0)
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, ing := range got {
		names[i] = ing.Name
	}
	assert.Equal(t, []string{"Chicken", "Chickpeas", "Smoked chicken"}, names)

	got, err = svc.SearchIngredients(ctx, "chick", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chicken", got[0].Name)

	got, err = svc.SearchIngredients(ctx, "dragonfruit", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.SearchIngredients(ctx, " ?! ", 0)
	assert.ErrorIs(t, err, service.ErrEmptySearch)
}
