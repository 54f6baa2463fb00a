package usecase

import (
	"strings"

	"github.com/scancart/backend/internal/domain"
)

// Classify infers a category from the signals on a scanned product.
// Precedence when signals conflict: explicit catalog category tag, then
// keyword match against name/brand, then the generic "other" bucket.
// Pure and total: the same product always yields the same category.
func Classify(product *domain.ScannedProduct) domain.Category {
	if product == nil {
		return domain.CategoryOther
	}

	for _, tag := range product.CategoryTags {
		if category, ok := categoryForTag(tag); ok {
			return category
		}
	}

	text := strings.ToLower(product.Name + " " + product.Brand)
	for _, rule := range keywordRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.category
			}
		}
	}

	return domain.CategoryOther
}

// categoryForTag maps an explicit catalog tag to a category.
// Tags arrive in catalog taxonomy form, e.g. "en:dairies" or "dairy".
func categoryForTag(tag string) (domain.Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if idx := strings.Index(normalized, ":"); idx >= 0 {
		normalized = normalized[idx+1:]
	}
	normalized = strings.ReplaceAll(normalized, "-", " ")

	category, ok := tagCategories[normalized]
	return category, ok
}

// tagCategories maps normalized catalog taxonomy tags to our buckets
var tagCategories = map[string]domain.Category{
	"dairy":                 domain.CategoryDairy,
	"dairies":               domain.CategoryDairy,
	"milks":                 domain.CategoryDairy,
	"cheeses":               domain.CategoryDairy,
	"yogurts":               domain.CategoryDairy,
	"meat":                  domain.CategoryMeat,
	"meats":                 domain.CategoryMeat,
	"poultry":               domain.CategoryMeat,
	"seafood":               domain.CategorySeafood,
	"fishes":                domain.CategorySeafood,
	"produce":               domain.CategoryProduce,
	"fruits":                domain.CategoryProduce,
	"vegetables":            domain.CategoryProduce,
	"fruits and vegetables": domain.CategoryProduce,
	"bakery":                domain.CategoryBakery,
	"breads":                domain.CategoryBakery,
	"pastries":              domain.CategoryBakery,
	"frozen":                domain.CategoryFrozen,
	"frozen foods":          domain.CategoryFrozen,
	"deli":                  domain.CategoryDeli,
	"charcuterie":           domain.CategoryDeli,
	"pantry":                domain.CategoryPantry,
	"canned foods":          domain.CategoryPantry,
	"cereals":               domain.CategoryPantry,
	"condiments":            domain.CategoryPantry,
	"beverages":             domain.CategoryBeverage,
	"drinks":                domain.CategoryBeverage,
	"snacks":                domain.CategorySnack,
	"sweet snacks":          domain.CategorySnack,
	"salty snacks":          domain.CategorySnack,
	"household":             domain.CategoryHousehold,
	"cleaning products":     domain.CategoryHousehold,
}

// keywordRules match product name/brand text when no explicit tag applies.
// Order matters: earlier rules win on conflicting signals.
var keywordRules = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryFrozen, []string{"frozen", "ice cream", "popsicle"}},
	{domain.CategoryDairy, []string{"milk", "cheese", "yogurt", "butter", "cream", "kefir"}},
	{domain.CategorySeafood, []string{"salmon", "tuna", "shrimp", "cod", "tilapia", "crab"}},
	{domain.CategoryMeat, []string{"chicken", "beef", "pork", "turkey", "bacon", "sausage", "ham"}},
	{domain.CategoryProduce, []string{"apple", "banana", "lettuce", "tomato", "onion", "carrot", "spinach", "avocado", "berries"}},
	{domain.CategoryBakery, []string{"bread", "bagel", "croissant", "muffin", "tortilla", "bun"}},
	{domain.CategoryBeverage, []string{"juice", "soda", "coffee", "tea", "water", "kombucha"}},
	{domain.CategorySnack, []string{"chips", "cookie", "candy", "chocolate", "crackers", "pretzel", "granola bar"}},
	{domain.CategoryPantry, []string{"rice", "pasta", "flour", "sugar", "cereal", "beans", "soup", "oil", "sauce"}},
	{domain.CategoryHousehold, []string{"detergent", "paper towel", "toilet paper", "soap", "shampoo", "trash bag"}},
}
