package enums

import "strings"

// Category groups items for expiry defaults. The set is open: unknown
// categories are carried through and resolved via the "other" fallback.
type Category string

const (
	CategoryProduce    Category = "produce"
	CategoryDairy      Category = "dairy"
	CategoryProtein    Category = "protein"
	CategoryGrains     Category = "grains"
	CategoryCondiments Category = "condiments"
	CategoryBeverage   Category = "beverage"
	CategoryOther      Category = "other"
)

var knownCategories = []Category{
	CategoryProduce,
	CategoryDairy,
	CategoryProtein,
	CategoryGrains,
	CategoryCondiments,
	CategoryBeverage,
	CategoryOther,
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// IsKnown reports whether the value is one of the built-in categories.
func (c Category) IsKnown() bool {
	for _, candidate := range knownCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// NormalizeCategory trims and lower-cases a category name.
func NormalizeCategory(value string) Category {
	return Category(strings.ToLower(strings.TrimSpace(value)))
}

// KnownCategories returns the built-in categories in display order.
func KnownCategories() []Category {
	out := make([]Category, len(knownCategories))
	copy(out, knownCategories)
	return out
}
