package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/service"
	"github.com/pageza/nutrimatch/backend/internal/testhelpers"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

type testEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	tokens      *service.TokenService
	catalog     *service.CatalogService
	preferences *service.PreferenceService
	favorites   *service.FavoriteService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupSQLite(t)
	return &testEnv{
		db:          db,
		router:      gin.New(),
		tokens:      service.NewTokenService("test-secret", time.Hour),
		catalog:     service.NewCatalogService(db),
		preferences: service.NewPreferenceService(db, nil),
		favorites:   service.NewFavoriteService(db),
	}
}

func (e *testEnv) v1() *gin.RouterGroup {
	return e.router.Group("/api/v1")
}

func (e *testEnv) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	tok, err := e.tokens.GenerateToken(&types.TokenClaims{UserID: userID, Username: "user-" + userID.String()[:8], Role: role})
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

// seedRecipes stores the catalog used across handler tests:
// 1 Pad Thai (thai, peanuts), 2 Margherita (italian, milk, wheat), 3 Chicken Curry (indian, poultry).
func seedRecipes(t *testing.T, db *gorm.DB) []*models.Recipe {
	t.Helper()
	noodles := testhelpers.CreateIngredient(t, db, models.Ingredient{Name: "Rice Noodles", Calories: 109, Carbs: 25, Protein: 1})
	peanuts := testhelpers.CreateIngredient(t, db, models.Ingredient{Name: "Peanuts", Calories: 567, Protein: 26, Fat: 49, Allergens: models.StringArray{"peanuts"}, Tags: models.StringArray{"legume"}})
	dough := testhelpers.CreateIngredient(t, db, models.Ingredient{Name: "Pizza Dough", Calories: 250, Carbs: 48, Protein: 8, Allergens: models.StringArray{"gluten", "wheat"}, Tags: models.StringArray{"gluten", "grain"}})
	mozzarella := testhelpers.CreateIngredient(t, db, models.Ingredient{Name: "Mozzarella", Calories: 280, Protein: 28, Fat: 17, Sodium: 600, Allergens: models.StringArray{"milk"}, Tags: models.StringArray{"dairy"}})
	chicken := testhelpers.CreateIngredient(t, db, models.Ingredient{Name: "Chicken Thigh", Calories: 209, Protein: 26, Fat: 11, Tags: models.StringArray{"meat", "poultry"}})

	return []*models.Recipe{
		testhelpers.CreateRecipe(t, db, "Pad Thai", "thai", 2, testhelpers.Line{Ingredient: noodles, Grams: 200}, testhelpers.Line{Ingredient: peanuts, Grams: 30}),
		testhelpers.CreateRecipe(t, db, "Margherita", "italian", 2, testhelpers.Line{Ingredient: dough, Grams: 250}, testhelpers.Line{Ingredient: mozzarella, Grams: 125}),
		testhelpers.CreateRecipe(t, db, "Chicken Curry", "indian", 2, testhelpers.Line{Ingredient: chicken, Grams: 400}),
	}
}

func jsonOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}
