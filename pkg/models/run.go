package models

import (
	"time"

	"github.com/google/uuid"
)

// Analytics run states. A run becomes visible to readers only after it
// reaches RunCompleted and the current-run pointer is swapped to it.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// AnalyticsRun is one end-to-end recomputation of the derived artifacts
// (forecasts, customer scores, KPI snapshot) against a consistent read of
// the ingested datasets. Runs are immutable snapshots: readers bind to the
// latest completed run and never observe a half-written one.
type AnalyticsRun struct {
	ID          uuid.UUID  `json:"id"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
