package domain

// Category is the confirmed classification of a purchased product
type Category string

const (
	CategoryDairy     Category = "dairy"
	CategoryMeat      Category = "meat"
	CategorySeafood   Category = "seafood"
	CategoryProduce   Category = "produce"
	CategoryBakery    Category = "bakery"
	CategoryFrozen    Category = "frozen"
	CategoryDeli      Category = "deli"
	CategoryPantry    Category = "pantry"
	CategoryBeverage  Category = "beverage"
	CategorySnack     Category = "snack"
	CategoryHousehold Category = "household"
	CategoryOther     Category = "other"
)

// perishableCategories require an expiration date before a purchase completes
var perishableCategories = map[Category]bool{
	CategoryDairy:   true,
	CategoryMeat:    true,
	CategorySeafood: true,
	CategoryProduce: true,
	CategoryBakery:  true,
	CategoryFrozen:  true,
	CategoryDeli:    true,
}

// Perishable reports whether purchases in this category need an expiration date
func (c Category) Perishable() bool {
	return perishableCategories[c]
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

var validCategories = map[Category]bool{
	CategoryDairy:     true,
	CategoryMeat:      true,
	CategorySeafood:   true,
	CategoryProduce:   true,
	CategoryBakery:    true,
	CategoryFrozen:    true,
	CategoryDeli:      true,
	CategoryPantry:    true,
	CategoryBeverage:  true,
	CategorySnack:     true,
	CategoryHousehold: true,
	CategoryOther:     true,
}

// IsValid returns true if the category is one of the known buckets
func (c Category) IsValid() bool {
	return validCategories[c]
}
