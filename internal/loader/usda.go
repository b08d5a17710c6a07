package loader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pageza/nutrimatch/backend/internal/models"
)

// USDA FoodData Central nutrient numbers.
const (
	usdaEnergy  = "208"
	usdaProtein = "203"
	usdaFat     = "204"
	usdaCarbs   = "205"
	usdaSugar   = "269"
	usdaFiber   = "291"
	usdaSodium  = "307"
)

// USDAProvider searches USDA FoodData Central (/fdc/v1/foods/search).
type USDAProvider struct {
	http     httpClient
	apiKey   string
	pageSize int
}

// NewUSDAProvider returns a provider for baseURL (for example https://api.nal.usda.gov).
func NewUSDAProvider(baseURL, apiKey string, client *http.Client) *USDAProvider {
	return &USDAProvider{http: newHTTPClient("usda", baseURL, client), apiKey: apiKey, pageSize: 25}
}

func (p *USDAProvider) Name() string { return "usda" }

func (p *USDAProvider) Fetch(ctx context.Context, query string) (*RawPayload, error) {
	params := url.Values{}
	params.Set("api_key", p.apiKey)
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(p.pageSize))
	return p.http.get(ctx, "/fdc/v1/foods/search", params, query)
}

type usdaResponse struct {
	Foods []json.RawMessage `json:"foods"`
}

type usdaFood struct {
	FdcID         int64  `json:"fdcId"`
	Description   string `json:"description"`
	FoodCategory  string `json:"foodCategory"`
	AllergenName  string `json:"allergenName"`
	FoodNutrients []struct {
		NutrientNumber string  `json:"nutrientNumber"`
		UnitName       string  `json:"unitName"`
		Value          float64 `json:"value"`
	} `json:"foodNutrients"`
}

func (p *USDAProvider) Parse(raw *RawPayload) ([]models.Ingredient, []error) {
	var resp usdaResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, payloadError(raw, err)
	}

	items := make([]rawItem, 0, len(resp.Foods))
	var errs []error
	for _, elem := range resp.Foods {
		var f usdaFood
		if err := json.Unmarshal(elem, &f); err != nil {
			errs = append(errs, decodeFailure(raw, elem, err, "description", "fdcId"))
			continue
		}
		item := rawItem{
			Name:     f.Description,
			Category: f.FoodCategory,
		}
		if f.FdcID != 0 {
			item.ExternalID = strconv.FormatInt(f.FdcID, 10)
		}
		if f.AllergenName != "" {
			item.Allergens = strings.Split(f.AllergenName, ",")
		}
		for _, n := range f.FoodNutrients {
			v := n.Value
			switch n.NutrientNumber {
			case usdaEnergy:
				// FDC also reports energy in kJ under the same number.
				if strings.EqualFold(n.UnitName, "kcal") || n.UnitName == "" {
					item.Calories = &v
				}
			case usdaProtein:
				item.Protein = &v
			case usdaFat:
				item.Fat = &v
			case usdaCarbs:
				item.Carbs = &v
			case usdaSugar:
				item.Sugar = &v
			case usdaFiber:
				item.Fiber = &v
			case usdaSodium:
				item.Sodium = &v
			}
		}
		items = append(items, item)
	}
	return collect(raw, items, errs)
}
