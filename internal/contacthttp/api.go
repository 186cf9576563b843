// Package contacthttp serves the public proxy endpoints: contact-form
// submission, health, and the JSON not-found fallback.
package contacthttp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cospark/hubspot-proxy/internal/contact"
	"github.com/cospark/hubspot-proxy/internal/hubspot"
	"github.com/cospark/hubspot-proxy/internal/log"
)

// ServiceName is what GET /health reports.
const ServiceName = "CoSpark HubSpot Proxy"

// Upserter is the CRM operation the API needs; *hubspot.Client implements it.
type Upserter interface {
	UpsertContact(ctx context.Context, props contact.Properties) (json.RawMessage, hubspot.Outcome, error)
}

// Options wires the API's collaborators. Metrics hooks are optional.
type Options struct {
	Upserter Upserter
	Logger   log.Logger

	OnValidationFailed func()
	OnUpsert           func(outcome string)
}

// API implements the proxy's public endpoints.
type API struct {
	upserter           Upserter
	logger             log.Logger
	onValidationFailed func()
	onUpsert           func(outcome string)
}

func NewAPI(opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	api := &API{
		upserter:           opts.Upserter,
		logger:             logger,
		onValidationFailed: opts.OnValidationFailed,
		onUpsert:           opts.OnUpsert,
	}
	if api.onValidationFailed == nil {
		api.onValidationFailed = func() {}
	}
	if api.onUpsert == nil {
		api.onUpsert = func(string) {}
	}
	return api
}

// RegisterRoutes attaches the proxy endpoints to the main router.
// The JSON 404 goes on both NotFound and MethodNotAllowed so every
// unknown method+path combination gets the same fixed body.
func (api *API) RegisterRoutes(r chi.Router) {
	r.Post("/contacts", api.HandleCreateContact)
	r.Get("/health", api.HandleHealth)
	r.NotFound(api.HandleNotFound)
	r.MethodNotAllowed(api.HandleNotFound)
}

type successResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type validationResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

type notFoundResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandleCreateContact validates the submission and upserts it into the CRM.
func (api *API) HandleCreateContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var sub contact.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		api.logger.Warn(ctx, "unparseable request body", "error", err.Error())
		api.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to create contact",
			Message: err.Error(),
		})
		return
	}

	if details := sub.Validate(); len(details) > 0 {
		api.onValidationFailed()
		api.logger.Info(ctx, "submission rejected", "details", details)
		api.writeJSON(ctx, w, http.StatusBadRequest, validationResponse{
			Error:   "Validation failed",
			Details: details,
		})
		return
	}

	body, outcome, err := api.upserter.UpsertContact(ctx, sub.Properties())
	if err != nil {
		api.onUpsert("error")
		api.logger.Error(ctx, err, "contact upsert failed", "email", sub.Email)
		api.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to create contact",
			Message: err.Error(),
		})
		return
	}

	api.onUpsert(string(outcome))
	api.logger.Info(ctx, "contact upserted", "email", sub.Email, "outcome", string(outcome))
	api.writeJSON(ctx, w, http.StatusOK, successResponse{
		Success: true,
		Data:    body,
		Message: "Contact created successfully",
	})
}

// HandleHealth reports liveness for the form client.
func (api *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(r.Context(), w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   ServiceName,
	})
}

// HandleNotFound serves the fixed JSON 404 listing the two endpoints.
func (api *API) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(r.Context(), w, http.StatusNotFound, notFoundResponse{
		Error:   "Not Found",
		Message: "Available endpoints: POST /contacts, GET /health",
	})
}

func (api *API) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Warn(ctx, "failed to encode JSON response", "error", err)
	}
}
