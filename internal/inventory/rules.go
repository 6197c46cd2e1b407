package inventory

// Rule applies one elapsed day to an item.
type Rule interface {
	Update(item *Item)
}

// NormalRule degrades quality by one per day, two once expired.
type NormalRule struct{}

// Update implements Rule.
func (NormalRule) Update(item *Item) {
	item.SellIn--
	degradation := 1
	if item.Expired() {
		degradation = 2
	}
	item.Quality = max(item.Quality-degradation, MinQuality)
}

// AgedBrieRule improves quality by one per day, two once expired.
type AgedBrieRule struct{}

// Update implements Rule.
func (AgedBrieRule) Update(item *Item) {
	item.SellIn--
	increase := 1
	if item.Expired() {
		increase = 2
	}
	item.Quality = min(item.Quality+increase, MaxQuality)
}

// SulfurasRule leaves legendary items untouched.
type SulfurasRule struct{}

// Update implements Rule.
func (SulfurasRule) Update(*Item) {}

// BackstagePassRule gains value as the concert approaches and drops to zero
// after it.
type BackstagePassRule struct{}

// Update implements Rule.
func (BackstagePassRule) Update(item *Item) {
	item.SellIn--
	if item.Expired() {
		item.Quality = 0
		return
	}

	var increase int
	switch {
	case item.SellIn < 5:
		increase = 3
	case item.SellIn < 10:
		increase = 2
	default:
		increase = 1
	}
	item.Quality = min(item.Quality+increase, MaxQuality)
}

// ConjuredRule degrades twice as fast as NormalRule.
type ConjuredRule struct{}

// Update implements Rule.
func (ConjuredRule) Update(item *Item) {
	item.SellIn--
	degradation := 2
	if item.Expired() {
		degradation = 4
	}
	item.Quality = max(item.Quality-degradation, MinQuality)
}
