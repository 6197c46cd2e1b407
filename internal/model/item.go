// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"time"

	"github.com/vyrodovalexey/gildedrose/internal/inventory"
)

// Validation errors for StockItem.
var (
	ErrEmptyName   = errors.New("name cannot be empty")
	ErrNameTooLong = errors.New("name cannot exceed 255 characters")
)

// MaxNameLength is the longest accepted item name in bytes.
const MaxNameLength = 255

// StockItem is an inventory line as stored and served by the API.
// Category is derived from Name and refreshed by the store on every write.
type StockItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SellIn    int       `json:"sell_in"`
	Quality   int       `json:"quality"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields a client controls. SellIn and Quality are
// accepted as given; the first nightly update brings them back in range.
func (i *StockItem) Validate() error {
	if i.Name == "" {
		return ErrEmptyName
	}

	if len(i.Name) > MaxNameLength {
		return ErrNameTooLong
	}

	return nil
}

// Inventory converts the stock item into the rule engine's item.
func (i *StockItem) Inventory() inventory.Item {
	return inventory.NewItem(i.Name, i.SellIn, i.Quality)
}

// Apply copies the rule engine's state back and refreshes the category.
func (i *StockItem) Apply(item inventory.Item) {
	i.SellIn = item.SellIn
	i.Quality = item.Quality
	i.Category = inventory.Classify(i.Name).String()
}

// AdvanceResult describes the inventory after one or more nightly updates.
type AdvanceResult struct {
	Day   int         `json:"day"`
	Days  int         `json:"days"`
	Items []StockItem `json:"items"`
}

// DayResponse reports the current simulated day.
type DayResponse struct {
	Day int `json:"day"`
}

// CategoryResponse reports which rule an item name resolves to.
type CategoryResponse struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Legendary bool   `json:"legendary"`
}

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error API response.
func NewErrorResponse[T any](errMsg string) APIResponse[T] {
	return APIResponse[T]{
		Success: false,
		Error:   errMsg,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// WebSocketMessage represents a message sent over WebSocket connection.
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Day       int         `json:"day,omitempty"`
	Days      int         `json:"days,omitempty"`
	Items     []StockItem `json:"items,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// WebSocket message types.
const (
	WSMessageTypeDayAdvanced = "day_advanced"
	WSMessageTypePing        = "ping"
	WSMessageTypePong        = "pong"
	WSMessageTypeError       = "error"
)

// NewDayAdvancedMessage creates a WebSocket message announcing an advance.
func NewDayAdvancedMessage(result *AdvanceResult) WebSocketMessage {
	return WebSocketMessage{
		Type:      WSMessageTypeDayAdvanced,
		Day:       result.Day,
		Days:      result.Days,
		Items:     result.Items,
		Timestamp: time.Now().UTC(),
	}
}
