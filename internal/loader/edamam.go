package loader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pageza/nutrimatch/backend/internal/models"
)

// EdamamProvider queries the Edamam food database parser (/api/food-database/v2/parser).
type EdamamProvider struct {
	http   httpClient
	appID  string
	appKey string
}

func NewEdamamProvider(baseURL, appID, appKey string, client *http.Client) *EdamamProvider {
	return &EdamamProvider{http: newHTTPClient("edamam", baseURL, client), appID: appID, appKey: appKey}
}

func (p *EdamamProvider) Name() string { return "edamam" }

func (p *EdamamProvider) Fetch(ctx context.Context, query string) (*RawPayload, error) {
	params := url.Values{}
	params.Set("app_id", p.appID)
	params.Set("app_key", p.appKey)
	params.Set("ingr", query)
	return p.http.get(ctx, "/api/food-database/v2/parser", params, query)
}

type edamamResponse struct {
	Hints []json.RawMessage `json:"hints"`
}

type edamamHint struct {
	Food struct {
		FoodID    string   `json:"foodId"`
		Label     string   `json:"label"`
		Category  string   `json:"category"`
		Allergens []string `json:"allergens"`
		Nutrients struct {
			Calories *float64 `json:"ENERC_KCAL"`
			Protein  *float64 `json:"PROCNT"`
			Fat      *float64 `json:"FAT"`
			Carbs    *float64 `json:"CHOCDF"`
			Fiber    *float64 `json:"FIBTG"`
			Sugar    *float64 `json:"SUGAR"`
			Sodium   *float64 `json:"NA"`
		} `json:"nutrients"`
	} `json:"food"`
}

func (p *EdamamProvider) Parse(raw *RawPayload) ([]models.Ingredient, []error) {
	var resp edamamResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, payloadError(raw, err)
	}

	items := make([]rawItem, 0, len(resp.Hints))
	var errs []error
	for _, elem := range resp.Hints {
		var h edamamHint
		if err := json.Unmarshal(elem, &h); err != nil {
			errs = append(errs, decodeFailure(raw, elem, err, "food.label", "food.foodId"))
			continue
		}
		f := h.Food
		items = append(items, rawItem{
			ExternalID: f.FoodID,
			Name:       f.Label,
			Category:   f.Category,
			Calories:   f.Nutrients.Calories,
			Protein:    f.Nutrients.Protein,
			Fat:        f.Nutrients.Fat,
			Carbs:      f.Nutrients.Carbs,
			Fiber:      f.Nutrients.Fiber,
			Sugar:      f.Nutrients.Sugar,
			Sodium:     f.Nutrients.Sodium,
			Allergens:  f.Allergens,
		})
	}
	return collect(raw, items, errs)
}
