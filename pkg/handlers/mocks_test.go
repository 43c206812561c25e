package handlers

import (
	"context"
	"io"

	"github.com/ecomlytics/ecomlytics-engine/pkg/analytics"
	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// mockPipeline implements analytics.PipelineService with overridable
// function fields. Unset methods return zero values.
type mockPipeline struct {
	processUploadFunc func(ctx context.Context, kind string, file io.Reader) (*analytics.UploadResult, error)
	kpisFunc          func(ctx context.Context) (*models.KPISnapshot, error)
	forecastsFunc     func(ctx context.Context) ([]models.Forecast, error)
	churnFunc         func(ctx context.Context) ([]models.CustomerScore, error)
	inventoryFunc     func(ctx context.Context) ([]models.InventoryRecommendation, error)
	simulateFunc      func(ctx context.Context, req analytics.SimulationRequest) (*analytics.SimulationResult, error)
	statusFunc        func(ctx context.Context) (*models.AnalyticsRun, error)
}

var _ analytics.PipelineService = (*mockPipeline)(nil)

func (m *mockPipeline) ProcessUpload(ctx context.Context, kind string, file io.Reader) (*analytics.UploadResult, error) {
	if m.processUploadFunc != nil {
		return m.processUploadFunc(ctx, kind, file)
	}
	return &analytics.UploadResult{}, nil
}

func (m *mockPipeline) Recompute(ctx context.Context) error { return nil }

func (m *mockPipeline) KPIs(ctx context.Context) (*models.KPISnapshot, error) {
	if m.kpisFunc != nil {
		return m.kpisFunc(ctx)
	}
	return &models.KPISnapshot{TopProducts: []models.ProductRevenue{}, RevenueByCategory: []models.CategoryRevenue{}}, nil
}

func (m *mockPipeline) Forecasts(ctx context.Context) ([]models.Forecast, error) {
	if m.forecastsFunc != nil {
		return m.forecastsFunc(ctx)
	}
	return []models.Forecast{}, nil
}

func (m *mockPipeline) ChurnScores(ctx context.Context) ([]models.CustomerScore, error) {
	if m.churnFunc != nil {
		return m.churnFunc(ctx)
	}
	return []models.CustomerScore{}, nil
}

func (m *mockPipeline) InventoryRecommendations(ctx context.Context) ([]models.InventoryRecommendation, error) {
	if m.inventoryFunc != nil {
		return m.inventoryFunc(ctx)
	}
	return []models.InventoryRecommendation{}, nil
}

func (m *mockPipeline) Simulate(ctx context.Context, req analytics.SimulationRequest) (*analytics.SimulationResult, error) {
	if m.simulateFunc != nil {
		return m.simulateFunc(ctx, req)
	}
	return &analytics.SimulationResult{}, nil
}

func (m *mockPipeline) Status(ctx context.Context) (*models.AnalyticsRun, error) {
	if m.statusFunc != nil {
		return m.statusFunc(ctx)
	}
	return &models.AnalyticsRun{}, nil
}

func (m *mockPipeline) Wait() {}
