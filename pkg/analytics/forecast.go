// Package analytics contains the derived-metric computations of the pipeline:
// KPI aggregation, demand forecasting, RFM churn scoring, inventory
// recommendations and what-if simulation. Everything here is a pure transform
// over in-memory snapshots of the ingested datasets; persistence and
// orchestration live in the pipeline service.
package analytics

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// Distinct-history thresholds for forecast confidence labels.
const (
	highConfidencePeriods   = 14
	mediumConfidencePeriods = 7
)

type productHistory struct {
	productID   string
	productName string
	category    string
	byDay       map[time.Time]float64
	lastDay     time.Time
}

// ComputeForecasts fits a per-product linear trend over daily quantities sold
// and projects it horizonDays into the future. Every product with at least one
// order gets exactly horizonDays consecutive forecast days starting the day
// after its latest order. Products with fewer than 2 distinct sales days
// degrade to a flat projection at the mean daily quantity. Projections are
// floored at zero.
func ComputeForecasts(orders []models.Order, horizonDays int) []models.Forecast {
	if len(orders) == 0 || horizonDays <= 0 {
		return nil
	}

	histories := make(map[string]*productHistory)
	var productIDs []string
	for _, order := range orders {
		h, ok := histories[order.ProductID]
		if !ok {
			h = &productHistory{
				productID: order.ProductID,
				byDay:     make(map[time.Time]float64),
			}
			histories[order.ProductID] = h
			productIDs = append(productIDs, order.ProductID)
		}
		h.byDay[order.OrderDate] += float64(order.Quantity)
		if order.OrderDate.After(h.lastDay) {
			h.lastDay = order.OrderDate
			h.productName = order.ProductName
			h.category = order.Category
		}
	}
	sort.Strings(productIDs)

	var forecasts []models.Forecast
	for _, productID := range productIDs {
		h := histories[productID]

		days := make([]time.Time, 0, len(h.byDay))
		for day := range h.byDay {
			days = append(days, day)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

		quantities := make([]float64, len(days))
		for i, day := range days {
			quantities[i] = h.byDay[day]
		}

		intercept, slope := fitTrend(quantities)
		confidence := confidenceFor(len(days))

		for i := 0; i < horizonDays; i++ {
			predicted := intercept + slope*float64(len(days)+i)
			if predicted < 0 {
				predicted = 0
			}
			forecasts = append(forecasts, models.Forecast{
				ID:                uuid.New(),
				ProductID:         h.productID,
				ProductName:       h.productName,
				Category:          h.category,
				ForecastDate:      h.lastDay.AddDate(0, 0, i+1),
				PredictedQuantity: predicted,
				Confidence:        confidence,
			})
		}
	}

	return forecasts
}

// fitTrend returns the intercept and slope of an ordinary least-squares fit of
// ys against the sequential index 0..n-1. With fewer than 2 points, or a
// degenerate fit, it returns a flat line at the mean.
func fitTrend(ys []float64) (intercept, slope float64) {
	n := float64(len(ys))
	if n == 0 {
		return 0, 0
	}

	var sumY float64
	for _, y := range ys {
		sumY += y
	}
	mean := sumY / n
	if len(ys) < 2 {
		return mean, 0
	}

	// For x = 0..n-1: mean(x) = (n-1)/2, sum((x-mean)^2) = n(n^2-1)/12.
	meanX := (n - 1) / 2
	var covXY float64
	for i, y := range ys {
		covXY += (float64(i) - meanX) * (y - mean)
	}
	varX := n * (n*n - 1) / 12

	slope = covXY / varX
	intercept = mean - slope*meanX
	return intercept, slope
}

func confidenceFor(periods int) string {
	switch {
	case periods >= highConfidencePeriods:
		return models.ConfidenceHigh
	case periods >= mediumConfidencePeriods:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
