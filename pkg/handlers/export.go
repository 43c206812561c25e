package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ecomlytics/ecomlytics-engine/pkg/analytics"
	"github.com/ecomlytics/ecomlytics-engine/pkg/apperrors"
	"github.com/ecomlytics/ecomlytics-engine/pkg/auth"
)

// Report names accepted by the CSV export endpoint.
const (
	ReportChurn     = "churn"
	ReportForecast  = "forecast"
	ReportInventory = "inventory"
)

// ExportHandler streams analytics reports as CSV downloads.
type ExportHandler struct {
	pipeline analytics.PipelineService
	logger   *zap.Logger
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(pipeline analytics.PipelineService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{pipeline: pipeline, logger: logger}
}

// RegisterRoutes registers the export handler's routes on the given mux.
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/export/csv/{report}", authMiddleware.RequireAuth(h.Export))
}

// Export handles GET /api/export/csv/{report} requests. The report is one of
// "churn", "forecast" or "inventory"; an empty report returns 404.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	report := r.PathValue("report")

	var rows [][]string
	var err error
	switch report {
	case ReportChurn:
		rows, err = h.churnRows(r)
	case ReportForecast:
		rows, err = h.forecastRows(r)
	case ReportInventory:
		rows, err = h.inventoryRows(r)
	default:
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Invalid report type %q", report))
		return
	}

	if err != nil {
		if errors.Is(err, apperrors.ErrNoData) {
			_ = ErrorResponse(w, http.StatusNotFound, "no_data", "No data available")
			return
		}
		h.logger.Error("CSV export failed", zap.String("report", report), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to export report")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_report.csv", report))
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		h.logger.Error("Failed to write CSV response", zap.Error(err))
	}
}

func (h *ExportHandler) churnRows(r *http.Request) ([][]string, error) {
	scores, err := h.pipeline.ChurnScores(r.Context())
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, apperrors.ErrNoData
	}

	rows := [][]string{{"customer_id", "name", "email", "join_date", "last_purchase_date", "order_count", "total_spent", "churn_probability", "risk_level"}}
	for _, s := range scores {
		lastPurchase := ""
		if s.LastPurchaseDate != nil {
			lastPurchase = s.LastPurchaseDate.Format("2006-01-02")
		}
		rows = append(rows, []string{
			s.CustomerID,
			s.Name,
			s.Email,
			s.JoinDate.Format("2006-01-02"),
			lastPurchase,
			strconv.Itoa(s.OrderCount),
			formatFloat(s.TotalSpent),
			formatFloat(s.ChurnProbability),
			s.RiskLevel,
		})
	}
	return rows, nil
}

func (h *ExportHandler) forecastRows(r *http.Request) ([][]string, error) {
	forecasts, err := h.pipeline.Forecasts(r.Context())
	if err != nil {
		return nil, err
	}
	if len(forecasts) == 0 {
		return nil, apperrors.ErrNoData
	}

	rows := [][]string{{"product_id", "product_name", "category", "forecast_date", "predicted_quantity", "confidence"}}
	for _, f := range forecasts {
		rows = append(rows, []string{
			f.ProductID,
			f.ProductName,
			f.Category,
			f.ForecastDate.Format("2006-01-02"),
			formatFloat(f.PredictedQuantity),
			f.Confidence,
		})
	}
	return rows, nil
}

func (h *ExportHandler) inventoryRows(r *http.Request) ([][]string, error) {
	recommendations, err := h.pipeline.InventoryRecommendations(r.Context())
	if err != nil {
		return nil, err
	}
	if len(recommendations) == 0 {
		return nil, apperrors.ErrNoData
	}

	rows := [][]string{{"product_id", "product_name", "category", "current_stock", "reorder_point", "unit_cost", "predicted_demand", "needs_reorder", "recommended_order_qty"}}
	for _, rec := range recommendations {
		rows = append(rows, []string{
			rec.ProductID,
			rec.ProductName,
			rec.Category,
			strconv.Itoa(rec.CurrentStock),
			strconv.Itoa(rec.ReorderPoint),
			formatFloat(rec.UnitCost),
			formatFloat(rec.PredictedDemand),
			strconv.FormatBool(rec.NeedsReorder),
			strconv.Itoa(rec.RecommendedOrderQty),
		})
	}
	return rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
