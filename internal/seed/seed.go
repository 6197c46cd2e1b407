// Package seed loads the starting inventory.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/gildedrose/internal/inventory"
	"github.com/vyrodovalexey/gildedrose/internal/model"
	"github.com/vyrodovalexey/gildedrose/internal/store"
)

// Seed errors.
var (
	ErrEmptySeed   = errors.New("seed file contains no items")
	ErrMissingName = errors.New("seed item has no name")
)

// Item is one entry of a seed file.
type Item struct {
	Name    string `yaml:"name"`
	SellIn  int    `yaml:"sell_in"`
	Quality int    `yaml:"quality"`
}

// File is the layout of a seed file:
//
//	items:
//	  - name: Aged Brie
//	    sell_in: 2
//	    quality: 0
type File struct {
	Items []Item `yaml:"items"`
}

// Default returns the classic starting inventory.
func Default() []Item {
	return []Item{
		{Name: "+5 Dexterity Vest", SellIn: 10, Quality: 20},
		{Name: inventory.AgedBrie, SellIn: 2, Quality: 0},
		{Name: "Elixir of the Mongoose", SellIn: 5, Quality: 7},
		{Name: inventory.Sulfuras, SellIn: 0, Quality: inventory.LegendaryQuality},
		{Name: inventory.Sulfuras, SellIn: -1, Quality: inventory.LegendaryQuality},
		{Name: inventory.BackstagePass, SellIn: 15, Quality: 20},
		{Name: inventory.BackstagePass, SellIn: 10, Quality: 49},
		{Name: inventory.BackstagePass, SellIn: 5, Quality: 49},
		{Name: "Conjured Mana Cake", SellIn: 3, Quality: 6},
	}
}

// Load reads a seed file. An empty path returns Default.
func Load(path string) ([]Item, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	return Parse(data)
}

// Parse decodes seed YAML.
func Parse(data []byte) ([]Item, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	if len(file.Items) == 0 {
		return nil, ErrEmptySeed
	}

	for i, item := range file.Items {
		if item.Name == "" {
			return nil, fmt.Errorf("item %d: %w", i, ErrMissingName)
		}
	}

	return file.Items, nil
}

// Populate creates every item in s, in order.
func Populate(ctx context.Context, s store.Store, items []Item) error {
	for _, item := range items {
		stock := &model.StockItem{
			Name:    item.Name,
			SellIn:  item.SellIn,
			Quality: item.Quality,
		}
		if _, err := s.Create(ctx, stock); err != nil {
			return fmt.Errorf("seeding %q: %w", item.Name, err)
		}
	}
	return nil
}
