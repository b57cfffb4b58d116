package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kilupskalvis/pricecmp/internal/catalog"
	"github.com/kilupskalvis/pricecmp/internal/models"
)

// Catalog is the subset of catalog.Store the API needs.
type Catalog interface {
	AddVendor(ctx context.Context, name string) (models.Vendor, error)
	RemoveVendor(ctx context.Context, id string) error
	RenameVendor(ctx context.Context, id, name string) (models.Vendor, error)
	Vendors() []models.Vendor

	AddItem(ctx context.Context, name string) (models.Item, error)
	RemoveItem(ctx context.Context, id string) error
	RenameItem(ctx context.Context, id, name string) (models.Item, error)
	Item(id string) (models.Item, error)

	UpdatePrice(ctx context.Context, itemID, vendorID string, price float64) (models.Item, error)
	ClearPrice(ctx context.Context, itemID, vendorID string) (models.Item, error)

	Filter(f models.Filter) ([]models.Item, error)
	Compare(f models.Filter) (*models.Comparison, error)
	Snapshot() *models.Snapshot
	Status() catalog.Status
}

// ServerConfig holds configurable limits for the server.
type ServerConfig struct {
	MaxRequestBody    int64 // bytes, for JSON endpoints
	RequestsPerMinute int   // per-client average rate; 0 disables limiting
	Burst             int   // per-client burst
	Metrics           *Metrics
}

// DefaultServerConfig returns reasonable defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		MaxRequestBody:    1 << 20, // 1MB
		RequestsPerMinute: 600,
		Burst:             50,
	}
}

// Handler creates the HTTP handler with all routes and middleware.
// The returned cleanup function stops background goroutines and should be
// called on server shutdown.
func Handler(st Catalog, cfg *ServerConfig, logger *slog.Logger) (http.Handler, func()) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	rl := newRateLimiter(cfg.RequestsPerMinute, cfg.Burst)
	api := &api{st: st, cfg: cfg, logger: logger}

	// Execution order: rl -> handler
	limited := func(h http.HandlerFunc) http.Handler {
		return applyMiddleware(h, rl.middleware)
	}

	mux := http.NewServeMux()

	// Health endpoints (not rate limited)
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", api.handleReadyz)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	// Vendors
	mux.Handle("GET /api/v1/vendors", limited(api.handleListVendors))
	mux.Handle("POST /api/v1/vendors", limited(api.handleAddVendor))
	mux.Handle("PATCH /api/v1/vendors/{id}", limited(api.handleRenameVendor))
	mux.Handle("DELETE /api/v1/vendors/{id}", limited(api.handleRemoveVendor))

	// Items
	mux.Handle("GET /api/v1/items", limited(api.handleListItems))
	mux.Handle("POST /api/v1/items", limited(api.handleAddItem))
	mux.Handle("GET /api/v1/items/{id}", limited(api.handleGetItem))
	mux.Handle("PATCH /api/v1/items/{id}", limited(api.handleRenameItem))
	mux.Handle("DELETE /api/v1/items/{id}", limited(api.handleRemoveItem))

	// Prices
	mux.Handle("PUT /api/v1/items/{id}/prices/{vendor}", limited(api.handleUpdatePrice))
	mux.Handle("DELETE /api/v1/items/{id}/prices/{vendor}", limited(api.handleClearPrice))

	// Views
	mux.Handle("GET /api/v1/comparison", limited(api.handleComparison))
	mux.Handle("GET /api/v1/snapshot", limited(api.handleSnapshot))
	mux.Handle("GET /api/v1/status", limited(api.handleStatus))

	// Apply global middleware
	handler := applyMiddleware(mux,
		requestIDMiddleware,
		loggingMiddleware(logger),
		metricsMiddleware(cfg.Metrics),
		recoveryMiddleware(logger),
	)

	cleanup := func() {
		rl.Stop()
	}

	return handler, cleanup
}

type api struct {
	st     Catalog
	cfg    *ServerConfig
	logger *slog.Logger
}

// nameRequest is the body for create and rename calls.
type nameRequest struct {
	Name string `json:"name"`
}

// priceRequest is the body for price updates.
type priceRequest struct {
	Price *float64 `json:"price"`
}

// statusResponse is the JSON form of catalog.Status.
type statusResponse struct {
	Persistent bool   `json:"persistent"`
	Degraded   bool   `json:"degraded"`
	Warning    string `json:"warning,omitempty"`
	Vendors    int    `json:"vendors"`
	Items      int    `json:"items"`
}

func newStatusResponse(s catalog.Status) statusResponse {
	resp := statusResponse{
		Persistent: s.Persistent,
		Degraded:   s.Degraded,
		Vendors:    s.Vendors,
		Items:      s.Items,
	}
	if s.Err != nil {
		resp.Warning = s.Err.Error()
	}
	return resp
}

// --- Health Handlers ---

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (a *api) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	status := a.st.Status()
	if status.Degraded {
		writeJSON(w, http.StatusServiceUnavailable, newStatusResponse(status))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (a *api) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newStatusResponse(a.st.Status()))
}

// --- Vendor Handlers ---

func (a *api) handleListVendors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.st.Vendors())
}

func (a *api) handleAddVendor(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := readJSON(r, a.cfg.MaxRequestBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("bad_request", err.Error()))
		return
	}
	v, err := a.st.AddVendor(r.Context(), req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (a *api) handleRenameVendor(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := readJSON(r, a.cfg.MaxRequestBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("bad_request", err.Error()))
		return
	}
	v, err := a.st.RenameVendor(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *api) handleRemoveVendor(w http.ResponseWriter, r *http.Request) {
	if err := a.st.RemoveVendor(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Item Handlers ---

func (a *api) handleListItems(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("validation_failed", err.Error()))
		return
	}
	items, err := a.st.Filter(f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *api) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := readJSON(r, a.cfg.MaxRequestBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("bad_request", err.Error()))
		return
	}
	it, err := a.st.AddItem(r.Context(), req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (a *api) handleGetItem(w http.ResponseWriter, r *http.Request) {
	it, err := a.st.Item(r.PathValue("id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (a *api) handleRenameItem(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := readJSON(r, a.cfg.MaxRequestBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("bad_request", err.Error()))
		return
	}
	it, err := a.st.RenameItem(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (a *api) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := a.st.RemoveItem(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Price Handlers ---

func (a *api) handleUpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := readJSON(r, a.cfg.MaxRequestBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("bad_request", err.Error()))
		return
	}
	if req.Price == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("validation_failed", "price is required"))
		return
	}
	it, err := a.st.UpdatePrice(r.Context(), r.PathValue("id"), r.PathValue("vendor"), *req.Price)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (a *api) handleClearPrice(w http.ResponseWriter, r *http.Request) {
	if _, err := a.st.ClearPrice(r.Context(), r.PathValue("id"), r.PathValue("vendor")); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- View Handlers ---

func (a *api) handleComparison(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("validation_failed", err.Error()))
		return
	}
	cmp, err := a.st.Compare(f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (a *api) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.st.Snapshot())
}

// --- Helpers ---

// parseFilter reads search, min, max, vendor and where query parameters.
func parseFilter(r *http.Request) (models.Filter, error) {
	q := r.URL.Query()
	f := models.Filter{
		Search:   q.Get("search"),
		VendorID: q.Get("vendor"),
		Expr:     q.Get("where"),
	}
	if v := q.Get("min"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("min must be a number")
		}
		f.Min = n
	}
	if v := q.Get("max"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("max must be a number")
		}
		f.Max = &n
	}
	return f, nil
}

func errorBody(code, message string) map[string]string {
	return map[string]string{"error": code, "message": message}
}

// writeError maps catalog errors to HTTP responses.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody("validation_failed", err.Error()))
	case errors.Is(err, catalog.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", err.Error()))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("cancelled", err.Error()))
	default:
		a.logger.Error("request failed", "error", err, "request_id", requestID(r))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", err.Error()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, maxSize int64, v interface{}) error {
	limited := io.LimitReader(r.Body, maxSize)
	if err := json.NewDecoder(limited).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
