package domain

// ScannedProduct is the normalized result of a successful barcode lookup.
// It lives only for the duration of the workflow instance that produced it.
type ScannedProduct struct {
	Barcode      string         `json:"barcode"`
	Name         string         `json:"name"`
	Brand        string         `json:"brand,omitempty"`
	ImageURL     string         `json:"imageUrl,omitempty"`
	Nutrition    NutritionFacts `json:"nutrition"`
	Ingredients  string         `json:"ingredients,omitempty"`
	Allergens    string         `json:"allergens,omitempty"`
	CategoryTags []string       `json:"categoryTags,omitempty"`
}

// NutritionFacts holds the key macronutrients per declared serving.
// All fields may be zero when the catalog has no nutrition data.
type NutritionFacts struct {
	ServingSize   string  `json:"servingSize,omitempty"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`       // grams
	Carbohydrates float64 `json:"carbohydrates"` // grams
	TotalFat      float64 `json:"totalFat"`      // grams
}

// Empty reports whether the catalog provided no nutrition data at all
func (n NutritionFacts) Empty() bool {
	return n.Calories == 0 && n.Protein == 0 && n.Carbohydrates == 0 && n.TotalFat == 0
}

// Scale returns nutrition facts multiplied by the given factor.
// Derived values are always computed on demand, never stored.
func (n NutritionFacts) Scale(factor float64) NutritionFacts {
	return NutritionFacts{
		ServingSize:   n.ServingSize,
		Calories:      n.Calories * factor,
		Protein:       n.Protein * factor,
		Carbohydrates: n.Carbohydrates * factor,
		TotalFat:      n.TotalFat * factor,
	}
}
