// Package inventory implements the nightly quality and sell-in rules for shop items.
package inventory

// Quality bounds shared by every non-legendary item.
const (
	MinQuality = 0
	MaxQuality = 50

	// LegendaryQuality is the conventional quality of a legendary item. It is
	// never enforced.
	LegendaryQuality = 80
)

// Item is a single stock line. Name decides which rule applies; SellIn and
// Quality are mutated in place by each update.
type Item struct {
	Name    string
	SellIn  int
	Quality int
}

// NewItem returns an item with the given state. No validation is performed:
// out of range values are handled by the first update.
func NewItem(name string, sellIn, quality int) Item {
	return Item{Name: name, SellIn: sellIn, Quality: quality}
}

// Expired reports whether the item is past its sell date.
func (i *Item) Expired() bool {
	return i.SellIn < 0
}

// Shop holds the items updated once per simulated day.
type Shop struct {
	Items []Item
}

// NewShop creates a shop over the given items. The slice is not copied.
func NewShop(items []Item) *Shop {
	return &Shop{Items: items}
}

// UpdateQuality advances every item in the shop by one day.
func (s *Shop) UpdateQuality() {
	UpdateQuality(s.Items)
}

// UpdateQuality resolves the rule for each item and applies it once, left to
// right, mutating the slice elements in place.
func UpdateQuality(items []Item) {
	for i := range items {
		Resolve(&items[i]).Update(&items[i])
	}
}
