package models

import (
	"time"

	"github.com/google/uuid"
)

// Forecast confidence labels, derived from the amount of history behind
// the fitted trend.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Forecast is one predicted (product, day) demand point. Forecasts are
// always derived from order history, never uploaded, and belong to a
// single analytics run.
type Forecast struct {
	ID                uuid.UUID `json:"id"`
	RunID             uuid.UUID `json:"-"`
	ProductID         string    `json:"product_id"`
	ProductName       string    `json:"product_name"`
	Category          string    `json:"category"`
	ForecastDate      time.Time `json:"forecast_date"`
	PredictedQuantity float64   `json:"predicted_quantity"`
	Confidence        string    `json:"confidence"`
}
