// Package handler provides HTTP request handlers for the inventory API.
package handler

import (
	"context"

	"github.com/vyrodovalexey/gildedrose/internal/model"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
}

// Advancer runs nightly updates over the inventory.
type Advancer interface {
	Advance(ctx context.Context, days int) (*model.AdvanceResult, error)
}
