package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ecomlytics/ecomlytics-engine/pkg/analytics"
	"github.com/ecomlytics/ecomlytics-engine/pkg/apperrors"
	"github.com/ecomlytics/ecomlytics-engine/pkg/auth"
	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// AnalyticsHandler serves the derived-metric endpoints of the dashboard:
// KPIs, forecasts, churn scores, inventory recommendations, what-if
// simulations and pipeline status.
type AnalyticsHandler struct {
	pipeline analytics.PipelineService
	logger   *zap.Logger
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(pipeline analytics.PipelineService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers the analytics handler's routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/kpis", authMiddleware.RequireAuth(h.KPIs))
	mux.HandleFunc("GET /api/forecast", authMiddleware.RequireAuth(h.Forecasts))
	mux.HandleFunc("GET /api/churn", authMiddleware.RequireAuth(h.Churn))
	mux.HandleFunc("GET /api/inventory", authMiddleware.RequireAuth(h.Inventory))
	mux.HandleFunc("POST /api/simulate", authMiddleware.RequireAuth(h.Simulate))
	mux.HandleFunc("GET /api/pipeline/status", authMiddleware.RequireAuth(h.Status))
}

// KPIs handles GET /api/kpis requests.
func (h *AnalyticsHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.pipeline.KPIs(r.Context())
	if err != nil {
		h.logger.Error("Failed to load KPIs", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load KPIs")
		return
	}
	if err := WriteJSON(w, http.StatusOK, snapshot); err != nil {
		h.logger.Error("Failed to encode KPI response", zap.Error(err))
	}
}

// Forecasts handles GET /api/forecast requests.
func (h *AnalyticsHandler) Forecasts(w http.ResponseWriter, r *http.Request) {
	forecasts, err := h.pipeline.Forecasts(r.Context())
	if err != nil {
		h.logger.Error("Failed to load forecasts", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load forecasts")
		return
	}
	response := map[string][]models.Forecast{"forecasts": forecasts}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode forecast response", zap.Error(err))
	}
}

// Churn handles GET /api/churn requests. Customers are ordered by churn
// probability, highest risk first.
func (h *AnalyticsHandler) Churn(w http.ResponseWriter, r *http.Request) {
	scores, err := h.pipeline.ChurnScores(r.Context())
	if err != nil {
		h.logger.Error("Failed to load churn scores", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load churn scores")
		return
	}
	response := map[string][]models.CustomerScore{"customers": scores}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode churn response", zap.Error(err))
	}
}

// Inventory handles GET /api/inventory requests.
func (h *AnalyticsHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	recommendations, err := h.pipeline.InventoryRecommendations(r.Context())
	if err != nil {
		h.logger.Error("Failed to load inventory recommendations", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load inventory recommendations")
		return
	}
	response := map[string][]models.InventoryRecommendation{"inventory": recommendations}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode inventory response", zap.Error(err))
	}
}

// Simulate handles POST /api/simulate requests.
func (h *AnalyticsHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	var req analytics.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	result, err := h.pipeline.Simulate(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoOrders) {
			_ = ErrorResponse(w, http.StatusBadRequest, "no_data", err.Error())
			return
		}
		// Unknown scenarios surface as client errors, everything else is ours.
		if req.Scenario != analytics.ScenarioPriceChange && req.Scenario != analytics.ScenarioAdSpend {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.logger.Error("Simulation failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Simulation failed")
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode simulation response", zap.Error(err))
	}
}

// PipelineStatusResponse reports the state of the most recent analytics run.
type PipelineStatusResponse struct {
	Status      string  `json:"status"`
	RunID       string  `json:"run_id,omitempty"`
	Error       string  `json:"error,omitempty"`
	StartedAt   string  `json:"started_at,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// Status handles GET /api/pipeline/status requests. Before any upload has
// triggered a recomputation the status is "idle".
func (h *AnalyticsHandler) Status(w http.ResponseWriter, r *http.Request) {
	run, err := h.pipeline.Status(r.Context())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			_ = WriteJSON(w, http.StatusOK, PipelineStatusResponse{Status: "idle"})
			return
		}
		h.logger.Error("Failed to load pipeline status", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load pipeline status")
		return
	}

	response := PipelineStatusResponse{
		Status:    run.Status,
		RunID:     run.ID.String(),
		Error:     run.Error,
		StartedAt: run.StartedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		completed := run.CompletedAt.Format(time.RFC3339)
		response.CompletedAt = &completed
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode status response", zap.Error(err))
	}
}
