package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ecomlytics/ecomlytics-engine/pkg/apperrors"
	"github.com/ecomlytics/ecomlytics-engine/pkg/database"
	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// RunRepository manages analytics runs and their materialized artifacts
// (forecasts, customer scores, KPI snapshot). A run's artifacts become
// visible atomically: Complete inserts everything and swaps the current-run
// pointer inside one transaction, so readers always see a whole run.
type RunRepository interface {
	// Create records a new run in the running state.
	Create(ctx context.Context, run *models.AnalyticsRun) error

	// Complete persists the run's artifacts, marks it completed and makes it
	// the current run, all in one transaction. Runs older than the previously
	// current one are pruned (their artifacts cascade).
	Complete(ctx context.Context, runID uuid.UUID, forecasts []models.Forecast, scores []models.CustomerScore, kpis *models.KPISnapshot) error

	// Fail marks the run failed with a reason; the current pointer is untouched.
	Fail(ctx context.Context, runID uuid.UUID, reason string) error

	// Current returns the run readers are bound to, or apperrors.ErrNotFound
	// before the first completed run.
	Current(ctx context.Context) (*models.AnalyticsRun, error)

	// Latest returns the most recently started run regardless of state, or
	// apperrors.ErrNotFound when no run has ever happened.
	Latest(ctx context.Context) (*models.AnalyticsRun, error)

	ForecastsForRun(ctx context.Context, runID uuid.UUID) ([]models.Forecast, error)
	ScoresForRun(ctx context.Context, runID uuid.UUID) ([]models.CustomerScore, error)
	KPIsForRun(ctx context.Context, runID uuid.UUID) (*models.KPISnapshot, error)
}

type runRepository struct {
	db *database.DB
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(db *database.DB) RunRepository {
	return &runRepository{db: db}
}

var _ RunRepository = (*runRepository)(nil)

func (r *runRepository) Create(ctx context.Context, run *models.AnalyticsRun) error {
	query := `
		INSERT INTO analytics_runs (id, status)
		VALUES ($1, $2)
		RETURNING started_at`

	if err := r.db.QueryRow(ctx, query, run.ID, models.RunRunning).Scan(&run.StartedAt); err != nil {
		return fmt.Errorf("failed to create analytics run: %w", err)
	}
	run.Status = models.RunRunning
	return nil
}

func (r *runRepository) Complete(ctx context.Context, runID uuid.UUID, forecasts []models.Forecast, scores []models.CustomerScore, kpis *models.KPISnapshot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin run completion: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if len(forecasts) > 0 {
		rows := make([][]any, len(forecasts))
		for i, f := range forecasts {
			rows[i] = []any{f.ID, runID, f.ProductID, f.ProductName, f.Category, f.ForecastDate, f.PredictedQuantity, f.Confidence}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"forecasts"},
			[]string{"id", "run_id", "product_id", "product_name", "category", "forecast_date", "predicted_quantity", "confidence"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("failed to insert forecasts: %w", err)
		}
	}

	if len(scores) > 0 {
		rows := make([][]any, len(scores))
		for i, s := range scores {
			rows[i] = []any{s.ID, runID, s.CustomerID, s.Name, s.Email, s.JoinDate, s.LastPurchaseDate, s.OrderCount, s.TotalSpent, s.ChurnProbability, s.RiskLevel}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"customer_scores"},
			[]string{"id", "run_id", "customer_id", "name", "email", "join_date", "last_purchase_date", "order_count", "total_spent", "churn_probability", "risk_level"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("failed to insert customer scores: %w", err)
		}
	}

	topProducts, err := json.Marshal(kpis.TopProducts)
	if err != nil {
		return fmt.Errorf("failed to encode top products: %w", err)
	}
	byCategory, err := json.Marshal(kpis.RevenueByCategory)
	if err != nil {
		return fmt.Errorf("failed to encode category revenue: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO kpi_snapshots (run_id, total_revenue, total_orders, avg_order_value, churn_rate, top_products, revenue_by_category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		runID, kpis.TotalRevenue, kpis.TotalOrders, kpis.AvgOrderValue, kpis.ChurnRate, topProducts, byCategory,
	); err != nil {
		return fmt.Errorf("failed to insert KPI snapshot: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE analytics_runs
		SET status = $2, completed_at = now()
		WHERE id = $1 AND status = $3`,
		runID, models.RunCompleted, models.RunRunning)
	if err != nil {
		return fmt.Errorf("failed to mark run completed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	var previous *uuid.UUID
	err = tx.QueryRow(ctx, `SELECT run_id FROM current_run`).Scan(&previous)
	if err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("failed to read current run pointer: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO current_run (singleton, run_id) VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET run_id = EXCLUDED.run_id`,
		runID,
	); err != nil {
		return fmt.Errorf("failed to swap current run pointer: %w", err)
	}

	// Keep the new run and its predecessor so in-flight readers of the old
	// snapshot finish cleanly; everything older is pruned via cascade.
	if previous != nil {
		if _, err := tx.Exec(ctx, `
			DELETE FROM analytics_runs
			WHERE id NOT IN ($1, $2) AND status IN ($3, $4)`,
			runID, *previous, models.RunCompleted, models.RunFailed,
		); err != nil {
			return fmt.Errorf("failed to prune old runs: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run completion: %w", err)
	}
	return nil
}

func (r *runRepository) Fail(ctx context.Context, runID uuid.UUID, reason string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE analytics_runs
		SET status = $2, error = $3, completed_at = now()
		WHERE id = $1`,
		runID, models.RunFailed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *runRepository) Current(ctx context.Context) (*models.AnalyticsRun, error) {
	query := `
		SELECT r.id, r.status, r.error, r.started_at, r.completed_at
		FROM analytics_runs r
		JOIN current_run c ON c.run_id = r.id`

	return r.scanRun(ctx, query)
}

func (r *runRepository) Latest(ctx context.Context) (*models.AnalyticsRun, error) {
	query := `
		SELECT id, status, error, started_at, completed_at
		FROM analytics_runs
		ORDER BY started_at DESC
		LIMIT 1`

	return r.scanRun(ctx, query)
}

func (r *runRepository) scanRun(ctx context.Context, query string) (*models.AnalyticsRun, error) {
	var run models.AnalyticsRun
	err := r.db.QueryRow(ctx, query).Scan(&run.ID, &run.Status, &run.Error, &run.StartedAt, &run.CompletedAt)
	if err == pgx.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics run: %w", err)
	}
	return &run, nil
}

func (r *runRepository) ForecastsForRun(ctx context.Context, runID uuid.UUID) ([]models.Forecast, error) {
	query := `
		SELECT id, run_id, product_id, product_name, category, forecast_date, predicted_quantity, confidence
		FROM forecasts
		WHERE run_id = $1
		ORDER BY product_id, forecast_date`

	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	defer rows.Close()

	var forecasts []models.Forecast
	for rows.Next() {
		var f models.Forecast
		if err := rows.Scan(&f.ID, &f.RunID, &f.ProductID, &f.ProductName, &f.Category,
			&f.ForecastDate, &f.PredictedQuantity, &f.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		forecasts = append(forecasts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read forecasts: %w", err)
	}
	return forecasts, nil
}

func (r *runRepository) ScoresForRun(ctx context.Context, runID uuid.UUID) ([]models.CustomerScore, error) {
	query := `
		SELECT id, run_id, customer_id, name, email, join_date, last_purchase_date,
		       order_count, total_spent, churn_probability, risk_level
		FROM customer_scores
		WHERE run_id = $1
		ORDER BY churn_probability DESC, customer_id`

	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer scores: %w", err)
	}
	defer rows.Close()

	var scores []models.CustomerScore
	for rows.Next() {
		var s models.CustomerScore
		if err := rows.Scan(&s.ID, &s.RunID, &s.CustomerID, &s.Name, &s.Email, &s.JoinDate,
			&s.LastPurchaseDate, &s.OrderCount, &s.TotalSpent, &s.ChurnProbability, &s.RiskLevel); err != nil {
			return nil, fmt.Errorf("failed to scan customer score: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read customer scores: %w", err)
	}
	return scores, nil
}

func (r *runRepository) KPIsForRun(ctx context.Context, runID uuid.UUID) (*models.KPISnapshot, error) {
	query := `
		SELECT total_revenue, total_orders, avg_order_value, churn_rate, top_products, revenue_by_category
		FROM kpi_snapshots
		WHERE run_id = $1`

	var snapshot models.KPISnapshot
	var topProducts, byCategory []byte
	err := r.db.QueryRow(ctx, query, runID).Scan(
		&snapshot.TotalRevenue, &snapshot.TotalOrders, &snapshot.AvgOrderValue,
		&snapshot.ChurnRate, &topProducts, &byCategory)
	if err == pgx.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query KPI snapshot: %w", err)
	}

	if err := json.Unmarshal(topProducts, &snapshot.TopProducts); err != nil {
		return nil, fmt.Errorf("failed to decode top products: %w", err)
	}
	if err := json.Unmarshal(byCategory, &snapshot.RevenueByCategory); err != nil {
		return nil, fmt.Errorf("failed to decode category revenue: %w", err)
	}
	return &snapshot, nil
}
