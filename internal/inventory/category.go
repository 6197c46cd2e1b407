package inventory

import "strings"

// Special item names.
const (
	AgedBrie      = "Aged Brie"
	Sulfuras      = "Sulfuras, Hand of Ragnaros"
	BackstagePass = "Backstage passes to a TAFKAL80ETC concert"

	// ConjuredPrefix marks any conjured item regardless of the rest of its name.
	ConjuredPrefix = "Conjured"
)

// Category is the closed set of item behaviours.
type Category int

// Item categories.
const (
	CategoryNormal Category = iota
	CategoryAgedBrie
	CategorySulfuras
	CategoryBackstagePass
	CategoryConjured
)

var categoryNames = [...]string{
	CategoryNormal:        "normal",
	CategoryAgedBrie:      "aged_brie",
	CategorySulfuras:      "sulfuras",
	CategoryBackstagePass: "backstage_pass",
	CategoryConjured:      "conjured",
}

// String returns the wire name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// Legendary reports whether items of this category never change.
func (c Category) Legendary() bool {
	return c == CategorySulfuras
}

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryNormal,
		CategoryAgedBrie,
		CategorySulfuras,
		CategoryBackstagePass,
		CategoryConjured,
	}
}

// exactNames is consulted before the conjured prefix.
var exactNames = map[string]Category{
	AgedBrie:      CategoryAgedBrie,
	Sulfuras:      CategorySulfuras,
	BackstagePass: CategoryBackstagePass,
}

// Classify maps an item name to its category. Exact names win over the
// conjured prefix, and anything else is normal.
func Classify(name string) Category {
	if c, ok := exactNames[name]; ok {
		return c
	}
	if strings.HasPrefix(name, ConjuredPrefix) {
		return CategoryConjured
	}
	return CategoryNormal
}

// RuleFor returns the rule for a category. Unknown values fall back to the
// normal rule.
func RuleFor(c Category) Rule {
	switch c {
	case CategoryAgedBrie:
		return AgedBrieRule{}
	case CategorySulfuras:
		return SulfurasRule{}
	case CategoryBackstagePass:
		return BackstagePassRule{}
	case CategoryConjured:
		return ConjuredRule{}
	default:
		return NormalRule{}
	}
}

// Resolve returns the rule that applies to item. The category is derived
// from the name on every call.
func Resolve(item *Item) Rule {
	return RuleFor(Classify(item.Name))
}
