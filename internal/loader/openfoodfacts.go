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

// OpenFoodFactsProvider searches Open Food Facts products (/api/v2/search).
type OpenFoodFactsProvider struct {
	http     httpClient
	pageSize int
}

func NewOpenFoodFactsProvider(baseURL string, client *http.Client) *OpenFoodFactsProvider {
	return &OpenFoodFactsProvider{http: newHTTPClient("openfoodfacts", baseURL, client), pageSize: 50}
}

func (p *OpenFoodFactsProvider) Name() string { return "openfoodfacts" }

func (p *OpenFoodFactsProvider) Fetch(ctx context.Context, query string) (*RawPayload, error) {
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("page_size", strconv.Itoa(p.pageSize))
	params.Set("fields", "code,product_name,categories_tags,allergens,allergens_tags,nutriments")
	params.Set("json", "1")
	return p.http.get(ctx, "/api/v2/search", params, query)
}

type offResponse struct {
	Products []json.RawMessage `json:"products"`
}

type offProduct struct {
	Code          string   `json:"code"`
	ProductName   string   `json:"product_name"`
	Categories    []string `json:"categories_tags"`
	Allergens     string   `json:"allergens"`
	AllergensTags []string `json:"allergens_tags"`
	Nutriments    struct {
		Calories *float64 `json:"energy-kcal_100g"`
		Protein  *float64 `json:"proteins_100g"`
		Carbs    *float64 `json:"carbohydrates_100g"`
		Fat      *float64 `json:"fat_100g"`
		Fiber    *float64 `json:"fiber_100g"`
		Sugar    *float64 `json:"sugars_100g"`
		Sodium   *float64 `json:"sodium_100g"` // grams
	} `json:"nutriments"`
}

func (p *OpenFoodFactsProvider) Parse(raw *RawPayload) ([]models.Ingredient, []error) {
	var resp offResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, payloadError(raw, err)
	}

	items := make([]rawItem, 0, len(resp.Products))
	var errs []error
	for _, elem := range resp.Products {
		var prod offProduct
		if err := json.Unmarshal(elem, &prod); err != nil {
			errs = append(errs, decodeFailure(raw, elem, err, "product_name", "code"))
			continue
		}
		n := prod.Nutriments
		item := rawItem{
			ExternalID: prod.Code,
			Name:       prod.ProductName,
			Calories:   n.Calories,
			Protein:    n.Protein,
			Carbs:      n.Carbs,
			Fat:        n.Fat,
			Fiber:      n.Fiber,
			Sugar:      n.Sugar,
			Allergens:  append([]string(nil), prod.AllergensTags...),
		}
		if n.Sodium != nil {
			mg := *n.Sodium * 1000
			item.Sodium = &mg
		}
		if len(prod.Categories) > 0 {
			item.Category = strings.TrimPrefix(prod.Categories[0], "en:")
		}
		if prod.Allergens != "" {
			item.Allergens = append(item.Allergens, strings.Split(prod.Allergens, ",")...)
		}
		items = append(items, item)
	}
	return collect(raw, items, errs)
}
