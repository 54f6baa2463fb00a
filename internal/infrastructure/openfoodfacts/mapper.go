package openfoodfacts

import (
	"strings"

	"github.com/scancart/backend/internal/domain"
)

// productResponse is the catalog's barcode lookup envelope.
// Unknown barcodes return status 0 with an empty product.
type productResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

// offProduct is the subset of catalog product fields we consume
type offProduct struct {
	ProductName     string        `json:"product_name"`
	Brands          string        `json:"brands"`
	ImageURL        string        `json:"image_url"`
	IngredientsText string        `json:"ingredients_text"`
	Allergens       string        `json:"allergens"`
	CategoriesTags  []string      `json:"categories_tags"`
	ServingSize     string        `json:"serving_size"`
	Nutriments      offNutriments `json:"nutriments"`
}

// offNutriments carries per-100g macronutrients
type offNutriments struct {
	EnergyKcal    float64 `json:"energy-kcal_100g"`
	Proteins      float64 `json:"proteins_100g"`
	Carbohydrates float64 `json:"carbohydrates_100g"`
	Fat           float64 `json:"fat_100g"`
}

// mapToScannedProduct converts a catalog product into the domain model.
// Brands arrive comma-separated; only the first is kept.
func mapToScannedProduct(barcode string, p *offProduct) *domain.ScannedProduct {
	brand := p.Brands
	if idx := strings.Index(brand, ","); idx >= 0 {
		brand = brand[:idx]
	}

	servingSize := p.ServingSize
	if servingSize == "" {
		servingSize = "100 g"
	}

	return &domain.ScannedProduct{
		Barcode:     barcode,
		Name:        p.ProductName,
		Brand:       strings.TrimSpace(brand),
		ImageURL:    p.ImageURL,
		Ingredients: p.IngredientsText,
		Allergens:   p.Allergens,
		CategoryTags: append([]string(nil), p.CategoriesTags...),
		Nutrition: domain.NutritionFacts{
			ServingSize:   servingSize,
			Calories:      p.Nutriments.EnergyKcal,
			Protein:       p.Nutriments.Proteins,
			Carbohydrates: p.Nutriments.Carbohydrates,
			TotalFat:      p.Nutriments.Fat,
		},
	}
}
