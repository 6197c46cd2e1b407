package nightly

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vyrodovalexey/gildedrose/internal/inventory"
	"github.com/vyrodovalexey/gildedrose/internal/model"
)

// Prometheus metrics.
var (
	daysAdvancedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gildedrose",
			Name:      "inventory_days_advanced_total",
			Help:      "Total number of simulated days applied to the inventory",
		},
	)

	itemUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gildedrose",
			Name:      "inventory_item_updates_total",
			Help:      "Total number of per-item daily updates by category",
		},
		[]string{"category"},
	)

	itemsByCategory = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gildedrose",
			Name:      "inventory_items",
			Help:      "Number of items in the inventory by category",
		},
		[]string{"category"},
	)

	expiredItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gildedrose",
			Name:      "inventory_expired_items",
			Help:      "Number of items past their sell date",
		},
	)

	advanceFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gildedrose",
			Name:      "inventory_advance_failures_total",
			Help:      "Total number of failed inventory advances",
		},
	)
)

// recordAdvance updates the inventory metrics from an advance result.
func recordAdvance(result *model.AdvanceResult) {
	daysAdvancedTotal.Add(float64(result.Days))

	counts := make(map[string]int)
	expired := 0
	for _, item := range result.Items {
		counts[item.Category]++
		if item.SellIn < 0 {
			expired++
		}
	}

	// Every category gets a series, so emptied categories read zero.
	for _, c := range inventory.Categories() {
		n := counts[c.String()]
		itemsByCategory.WithLabelValues(c.String()).Set(float64(n))
		itemUpdatesTotal.WithLabelValues(c.String()).Add(float64(n * result.Days))
	}
	expiredItems.Set(float64(expired))
}
