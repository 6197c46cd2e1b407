package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/gildedrose/internal/inventory"
	"github.com/vyrodovalexey/gildedrose/internal/model"
	"github.com/vyrodovalexey/gildedrose/internal/store"
)

// Version is the application version.
const Version = "1.0.0"

// DefaultMaxAdvanceDays bounds a single advance request when no limit is configured.
const DefaultMaxAdvanceDays = 365

// RESTHandler handles REST API requests for the inventory.
type RESTHandler struct {
	store    store.Store
	advancer Advancer
	maxDays  int
	logger   *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance. A non-positive
// maxDays falls back to DefaultMaxAdvanceDays.
func NewRESTHandler(s store.Store, advancer Advancer, maxDays int, logger *zap.Logger) *RESTHandler {
	if maxDays <= 0 {
		maxDays = DefaultMaxAdvanceDays
	}
	return &RESTHandler{
		store:    s,
		advancer: advancer,
		maxDays:  maxDays,
		logger:   logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/items/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items/{id}", h.UpdateItem).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
	router.HandleFunc("/api/v1/inventory/day", h.GetDay).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/inventory/advance", h.Advance).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/categories/{name}", h.GetCategory).Methods(http.MethodGet)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// ReadyCheck handles GET /ready requests.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Day(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		h.writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(ReadyResponse{Status: "ready"}))
}

// ListItems handles GET /api/v1/items requests.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := h.store.List(ctx)
	if err != nil {
		h.logger.Error("failed to list items", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to retrieve items")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(items))
}

// GetItem handles GET /api/v1/items/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	item, err := h.store.Get(ctx, id)
	if err != nil {
		h.handleStoreError(w, err, "get item")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// CreateItem handles POST /api/v1/items requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	input, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	item, err := h.store.Create(ctx, input)
	if err != nil {
		h.handleStoreError(w, err, "create item")
		return
	}

	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(item))
}

// UpdateItem handles PUT /api/v1/items/{id} requests.
func (h *RESTHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	input, ok := h.decodeItem(w, r)
	if !ok {
		return
	}

	item, err := h.store.Update(ctx, id, input)
	if err != nil {
		h.handleStoreError(w, err, "update item")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// DeleteItem handles DELETE /api/v1/items/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	if err := h.store.Delete(ctx, id); err != nil {
		h.handleStoreError(w, err, "delete item")
		return
	}

	h.writeJSON(w, http.StatusNoContent, nil)
}

// GetDay handles GET /api/v1/inventory/day requests.
func (h *RESTHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	day, err := h.store.Day(r.Context())
	if err != nil {
		h.handleStoreError(w, err, "get day")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(model.DayResponse{Day: day}))
}

// Advance handles POST /api/v1/inventory/advance requests. The optional
// days query parameter defaults to one.
func (h *RESTHandler) Advance(w http.ResponseWriter, r *http.Request) {
	days := 1
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > h.maxDays {
			h.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("days must be an integer between 1 and %d", h.maxDays))
			return
		}
		days = n
	}

	result, err := h.advancer.Advance(r.Context(), days)
	if err != nil {
		h.handleStoreError(w, err, "advance inventory")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(result))
}

// GetCategory handles GET /api/v1/categories/{name} requests.
func (h *RESTHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	category := inventory.Classify(name)

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(model.CategoryResponse{
		Name:      name,
		Category:  category.String(),
		Legendary: category.Legendary(),
	}))
}

// decodeItem reads and validates a stock item from the request body.
func (h *RESTHandler) decodeItem(w http.ResponseWriter, r *http.Request) (*model.StockItem, bool) {
	var input model.StockItem
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	if err := input.Validate(); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	return &input, true
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, store.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid item ID")
	case errors.Is(err, store.ErrInvalidDays):
		h.writeError(w, http.StatusBadRequest, store.ErrInvalidDays.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		h.writeError(w, http.StatusConflict, "item already exists")
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
	}
	h.writeJSON(w, status, response)
}
