package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ecomlytics/ecomlytics-engine/pkg/apperrors"
	"github.com/ecomlytics/ecomlytics-engine/pkg/config"
	"github.com/ecomlytics/ecomlytics-engine/pkg/ingest"
	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
	"github.com/ecomlytics/ecomlytics-engine/pkg/repositories"
	"github.com/ecomlytics/ecomlytics-engine/pkg/retry"
)

// recomputeTimeout bounds one background recomputation end to end.
const recomputeTimeout = 2 * time.Minute

// kpiCacheTTL bounds how long a cached KPI payload lives. Keys embed the run
// ID, so a pointer swap invalidates the cache without any explicit delete.
const kpiCacheTTL = time.Hour

// UploadResult reports the outcome of a processed CSV upload.
type UploadResult struct {
	Message          string            `json:"message"`
	Kind             models.EntityKind `json:"kind"`
	RecordsProcessed int               `json:"records_processed"`
	SkippedRows      int               `json:"skipped_rows"`
}

// PipelineService is the orchestrator of the analytics pipeline: it turns
// uploaded CSV batches into persisted datasets and recomputes the derived
// artifacts (forecasts, churn scores, KPI snapshot) into immutable runs.
// Read methods serve the current run and return well-defined empty results
// before any data exists.
type PipelineService interface {
	// ProcessUpload validates, cleans and persists one CSV batch, then
	// schedules a background recomputation when the upload affects derived
	// metrics. Uploads of the same kind are serialized, last-applied wins.
	ProcessUpload(ctx context.Context, kindSelector string, file io.Reader) (*UploadResult, error)

	// Recompute synchronously runs the full derived-metric computation and
	// publishes a new analytics run. Safe to call repeatedly and concurrently.
	Recompute(ctx context.Context) error

	KPIs(ctx context.Context) (*models.KPISnapshot, error)
	Forecasts(ctx context.Context) ([]models.Forecast, error)
	ChurnScores(ctx context.Context) ([]models.CustomerScore, error)
	InventoryRecommendations(ctx context.Context) ([]models.InventoryRecommendation, error)
	Simulate(ctx context.Context, req SimulationRequest) (*SimulationResult, error)

	// Status reports the most recent analytics run, completed or not.
	Status(ctx context.Context) (*models.AnalyticsRun, error)

	// Wait blocks until in-flight background recomputations finish.
	// Used by shutdown and tests.
	Wait()
}

type pipelineService struct {
	orders    repositories.OrderRepository
	customers repositories.CustomerRepository
	inventory repositories.InventoryRepository
	runs      repositories.RunRepository
	cache     *redis.Client // nil means no cache
	cfg       config.PipelineConfig
	logger    *zap.Logger

	// uploadMu serializes uploads per entity kind; recomputeMu serializes
	// whole recomputations so concurrent triggers cannot interleave runs.
	uploadMu    map[models.EntityKind]*sync.Mutex
	recomputeMu sync.Mutex
	background  sync.WaitGroup
}

// NewPipelineService creates the pipeline orchestrator. cache may be nil.
func NewPipelineService(
	orders repositories.OrderRepository,
	customers repositories.CustomerRepository,
	inventory repositories.InventoryRepository,
	runs repositories.RunRepository,
	cache *redis.Client,
	cfg config.PipelineConfig,
	logger *zap.Logger,
) PipelineService {
	if cfg.ForecastHorizonDays <= 0 {
		cfg.ForecastHorizonDays = 7
	}
	if cfg.RecencyWindowDays <= 0 {
		cfg.RecencyWindowDays = 180
	}
	if cfg.TopProducts <= 0 {
		cfg.TopProducts = 5
	}
	return &pipelineService{
		orders:    orders,
		customers: customers,
		inventory: inventory,
		runs:      runs,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
		uploadMu: map[models.EntityKind]*sync.Mutex{
			models.KindOrders:    {},
			models.KindCustomers: {},
			models.KindInventory: {},
		},
	}
}

var _ PipelineService = (*pipelineService)(nil)

func (s *pipelineService) ProcessUpload(ctx context.Context, kindSelector string, file io.Reader) (*UploadResult, error) {
	kind, err := ingest.ParseKind(kindSelector)
	if err != nil {
		return nil, err
	}

	batch, err := ingest.Parse(kind, file)
	if err != nil {
		return nil, err
	}

	mu := s.uploadMu[kind]
	mu.Lock()
	switch kind {
	case models.KindOrders:
		err = s.orders.InsertBatch(ctx, batch.Orders)
	case models.KindCustomers:
		err = s.customers.ReplaceAll(ctx, batch.Customers)
	case models.KindInventory:
		err = s.inventory.ReplaceAll(ctx, batch.Items)
	}
	mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to persist %s batch: %w", kind, err)
	}

	s.logger.Info("Processed upload",
		zap.String("kind", kind.String()),
		zap.Int("records", batch.Processed),
		zap.Int("skipped", batch.Skipped))

	// Inventory feeds a read-time view; only orders and customers move the
	// derived artifacts.
	if kind == models.KindOrders || kind == models.KindCustomers {
		s.scheduleRecompute()
	}

	return &UploadResult{
		Message:          fmt.Sprintf("Successfully uploaded %s", kind),
		Kind:             kind,
		RecordsProcessed: batch.Processed,
		SkippedRows:      batch.Skipped,
	}, nil
}

// scheduleRecompute kicks off a background recomputation decoupled from the
// upload request's lifetime.
func (s *pipelineService) scheduleRecompute() {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
		defer cancel()
		if err := s.Recompute(ctx); err != nil {
			s.logger.Error("Background recomputation failed", zap.Error(err))
		}
	}()
}

func (s *pipelineService) Recompute(ctx context.Context) error {
	s.recomputeMu.Lock()
	defer s.recomputeMu.Unlock()

	var orders []models.Order
	var customers []models.Customer
	err := retry.DoIfRetryable(ctx, nil, func() error {
		var err error
		if orders, err = s.orders.GetAll(ctx); err != nil {
			return err
		}
		customers, err = s.customers.GetAll(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to load datasets for recompute: %w", err)
	}

	run := &models.AnalyticsRun{ID: uuid.New()}
	if err := s.runs.Create(ctx, run); err != nil {
		return err
	}

	forecasts := ComputeForecasts(orders, s.cfg.ForecastHorizonDays)
	scores := ScoreCustomers(customers, orders, s.cfg.RecencyWindowDays)
	kpis := ComputeKPIs(orders, scores, s.cfg.TopProducts)

	err = retry.DoIfRetryable(ctx, nil, func() error {
		return s.runs.Complete(ctx, run.ID, forecasts, scores, &kpis)
	})
	if err != nil {
		if failErr := s.runs.Fail(context.WithoutCancel(ctx), run.ID, err.Error()); failErr != nil {
			s.logger.Warn("Failed to mark run as failed", zap.Error(failErr))
		}
		return fmt.Errorf("failed to publish analytics run: %w", err)
	}

	s.logger.Info("Published analytics run",
		zap.String("run_id", run.ID.String()),
		zap.Int("forecasts", len(forecasts)),
		zap.Int("scored_customers", len(scores)),
		zap.Int("orders", len(orders)))
	return nil
}

func (s *pipelineService) KPIs(ctx context.Context) (*models.KPISnapshot, error) {
	run, err := s.runs.Current(ctx)
	if errors.Is(err, apperrors.ErrNotFound) {
		// No run yet: the dashboard still renders, with zeros.
		return &models.KPISnapshot{
			TopProducts:       []models.ProductRevenue{},
			RevenueByCategory: []models.CategoryRevenue{},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	cacheKey := "kpi:" + run.ID.String()
	if s.cache != nil {
		if payload, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var snapshot models.KPISnapshot
			if err := json.Unmarshal(payload, &snapshot); err == nil {
				return &snapshot, nil
			}
		}
	}

	snapshot, err := s.runs.KPIsForRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(snapshot); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, kpiCacheTTL).Err(); err != nil {
				s.logger.Debug("KPI cache write failed", zap.Error(err))
			}
		}
	}
	return snapshot, nil
}

func (s *pipelineService) Forecasts(ctx context.Context) ([]models.Forecast, error) {
	run, err := s.runs.Current(ctx)
	if errors.Is(err, apperrors.ErrNotFound) {
		return []models.Forecast{}, nil
	}
	if err != nil {
		return nil, err
	}
	forecasts, err := s.runs.ForecastsForRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if forecasts == nil {
		forecasts = []models.Forecast{}
	}
	return forecasts, nil
}

func (s *pipelineService) ChurnScores(ctx context.Context) ([]models.CustomerScore, error) {
	run, err := s.runs.Current(ctx)
	if errors.Is(err, apperrors.ErrNotFound) {
		return []models.CustomerScore{}, nil
	}
	if err != nil {
		return nil, err
	}
	scores, err := s.runs.ScoresForRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if scores == nil {
		scores = []models.CustomerScore{}
	}
	return scores, nil
}

func (s *pipelineService) InventoryRecommendations(ctx context.Context) ([]models.InventoryRecommendation, error) {
	items, err := s.inventory.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	// One consistent forecast snapshot: all rows come from a single run.
	var forecasts []models.Forecast
	run, err := s.runs.Current(ctx)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		// No forecasts yet; recommendations degrade to stock-vs-reorder-point.
	case err != nil:
		return nil, err
	default:
		if forecasts, err = s.runs.ForecastsForRun(ctx, run.ID); err != nil {
			return nil, err
		}
	}

	return BuildRecommendations(items, forecasts), nil
}

func (s *pipelineService) Simulate(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	revenue, err := s.orders.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}
	return Simulate(revenue, req)
}

func (s *pipelineService) Status(ctx context.Context) (*models.AnalyticsRun, error) {
	return s.runs.Latest(ctx)
}

func (s *pipelineService) Wait() {
	s.background.Wait()
}
