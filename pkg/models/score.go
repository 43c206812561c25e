package models

import (
	"time"

	"github.com/google/uuid"
)

// Churn risk thresholds. These are a shared contract between the KPI
// churn rate, the churn table, and the dashboard - change them in exactly
// one place (here) or not at all.
const (
	HighRiskThreshold   = 0.7
	MediumRiskThreshold = 0.4
)

// Risk labels surfaced to the dashboard.
const (
	RiskHigh   = "High"
	RiskMedium = "Medium"
	RiskLow    = "Low"
)

// RiskLevelFor maps a churn probability to its display label.
func RiskLevelFor(probability float64) string {
	switch {
	case probability >= HighRiskThreshold:
		return RiskHigh
	case probability >= MediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// CustomerScore is a customer enriched with RFM-derived churn risk and
// order aggregates. Scores belong to a single analytics run and are
// recomputed from scratch whenever orders or customers change.
type CustomerScore struct {
	ID               uuid.UUID  `json:"id"`
	RunID            uuid.UUID  `json:"-"`
	CustomerID       string     `json:"customer_id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	JoinDate         time.Time  `json:"join_date"`
	LastPurchaseDate *time.Time `json:"last_purchase_date,omitempty"`
	OrderCount       int        `json:"order_count"`
	TotalSpent       float64    `json:"total_spent"`
	ChurnProbability float64    `json:"churn_probability"`
	RiskLevel        string     `json:"risk_level"`
}
