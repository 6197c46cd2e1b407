// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/gildedrose/internal/model"
)

// Store errors.
var (
	ErrNotFound      = errors.New("item not found")
	ErrAlreadyExists = errors.New("item already exists")
	ErrInvalidID     = errors.New("invalid item ID")
	ErrNilItem       = errors.New("item cannot be nil")
	ErrInvalidDays   = errors.New("days must be at least 1")
)

// Store defines the interface for inventory storage operations.
type Store interface {
	// List returns all items in insertion order.
	List(ctx context.Context) ([]model.StockItem, error)

	// Get retrieves an item by its ID.
	Get(ctx context.Context, id string) (*model.StockItem, error)

	// Create adds a new item to the store and returns the created item with generated ID.
	Create(ctx context.Context, item *model.StockItem) (*model.StockItem, error)

	// Update replaces the name, sell-in and quality of an existing item.
	Update(ctx context.Context, id string, item *model.StockItem) (*model.StockItem, error)

	// Delete removes an item from the store by its ID.
	Delete(ctx context.Context, id string) error

	// Advance runs the nightly update over every item the given number of times.
	Advance(ctx context.Context, days int) (*model.AdvanceResult, error)

	// Day returns the number of days advanced so far.
	Day(ctx context.Context) (int, error)
}
