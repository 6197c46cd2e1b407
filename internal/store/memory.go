package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/gildedrose/internal/inventory"
	"github.com/vyrodovalexey/gildedrose/internal/model"
)

// MemoryStore implements Store interface with in-memory storage.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]model.StockItem
	order []string
	day   int
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]model.StockItem),
	}
}

// List returns all items in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]model.StockItem, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot(), nil
}

// Get retrieves an item by its ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.StockItem, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get item: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	return &item, nil
}

// Create adds a new item to the store and returns the created item with generated ID.
func (s *MemoryStore) Create(ctx context.Context, item *model.StockItem) (*model.StockItem, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create item: %w", ctx.Err())
	default:
	}

	if item == nil {
		return nil, fmt.Errorf("create item: %w", ErrNilItem)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	newItem := model.StockItem{
		ID:        uuid.New().String(),
		Name:      item.Name,
		SellIn:    item.SellIn,
		Quality:   item.Quality,
		Category:  inventory.Classify(item.Name).String(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.items[newItem.ID] = newItem
	s.order = append(s.order, newItem.ID)

	return &newItem, nil
}

// Update replaces the name, sell-in and quality of an existing item.
func (s *MemoryStore) Update(ctx context.Context, id string, item *model.StockItem) (*model.StockItem, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update item: %w", ctx.Err())
	default:
	}

	if id == "" {
		return nil, ErrInvalidID
	}

	if item == nil {
		return nil, fmt.Errorf("update item: %w", ErrNilItem)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	updatedItem := model.StockItem{
		ID:        id,
		Name:      item.Name,
		SellIn:    item.SellIn,
		Quality:   item.Quality,
		Category:  inventory.Classify(item.Name).String(),
		CreatedAt: existing.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}

	s.items[id] = updatedItem

	return &updatedItem, nil
}

// Delete removes an item from the store by its ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	if id == "" {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return ErrNotFound
	}

	delete(s.items, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}

	return nil
}

// Advance runs inventory.UpdateQuality over every item days times, in
// insertion order, and bumps the day counter.
func (s *MemoryStore) Advance(ctx context.Context, days int) (*model.AdvanceResult, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("advance inventory: %w", ctx.Err())
	default:
	}

	if days < 1 {
		return nil, ErrInvalidDays
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]inventory.Item, len(s.order))
	for i, id := range s.order {
		stock := s.items[id]
		items[i] = stock.Inventory()
	}

	for range days {
		inventory.UpdateQuality(items)
	}

	now := time.Now().UTC()
	for i, id := range s.order {
		stock := s.items[id]
		stock.Apply(items[i])
		stock.UpdatedAt = now
		s.items[id] = stock
	}
	s.day += days

	return &model.AdvanceResult{
		Day:   s.day,
		Days:  days,
		Items: s.snapshot(),
	}, nil
}

// Day returns the number of days advanced so far.
func (s *MemoryStore) Day(ctx context.Context) (int, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("get day: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.day, nil
}

// snapshot copies the items in insertion order. Callers must hold the lock.
func (s *MemoryStore) snapshot() []model.StockItem {
	items := make([]model.StockItem, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.items[id])
	}
	return items
}
