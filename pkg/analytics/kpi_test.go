package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

func TestComputeKPIs_NoOrders(t *testing.T) {
	snapshot := ComputeKPIs(nil, nil, 5)

	assert.Equal(t, 0.0, snapshot.TotalRevenue)
	assert.Equal(t, 0, snapshot.TotalOrders)
	assert.Equal(t, 0.0, snapshot.AvgOrderValue)
	assert.Equal(t, 0.0, snapshot.ChurnRate)
	assert.NotNil(t, snapshot.TopProducts)
	assert.Empty(t, snapshot.TopProducts)
	assert.NotNil(t, snapshot.RevenueByCategory)
	assert.Empty(t, snapshot.RevenueByCategory)
}

func TestComputeKPIs_RevenueIdentity(t *testing.T) {
	orders := []models.Order{
		order("P1", day(2024, 1, 1), 1, 1200),
		order("P2", day(2024, 1, 2), 2, 25),
		order("P1", day(2024, 1, 3), 1, 1200),
	}

	snapshot := ComputeKPIs(orders, nil, 5)

	assert.Equal(t, 2450.0, snapshot.TotalRevenue)
	assert.Equal(t, 3, snapshot.TotalOrders)
	assert.InDelta(t, 2450.0/3, snapshot.AvgOrderValue, 1e-9)

	// Product revenues must sum back to total revenue when topN covers all.
	var productSum float64
	for _, p := range snapshot.TopProducts {
		productSum += p.Revenue
	}
	assert.InDelta(t, snapshot.TotalRevenue, productSum, 1e-9)

	var categorySum float64
	for _, c := range snapshot.RevenueByCategory {
		categorySum += c.Revenue
	}
	assert.InDelta(t, snapshot.TotalRevenue, categorySum, 1e-9)
}

func TestComputeKPIs_TopProductsRankedAndTruncated(t *testing.T) {
	orders := []models.Order{
		order("P1", day(2024, 1, 1), 1, 100),
		order("P2", day(2024, 1, 1), 1, 300),
		order("P3", day(2024, 1, 1), 1, 200),
	}

	snapshot := ComputeKPIs(orders, nil, 2)
	require.Len(t, snapshot.TopProducts, 2)
	assert.Equal(t, "P2", snapshot.TopProducts[0].ProductID)
	assert.Equal(t, "P3", snapshot.TopProducts[1].ProductID)
}

func TestComputeKPIs_TieBrokenByProductID(t *testing.T) {
	orders := []models.Order{
		order("P9", day(2024, 1, 1), 1, 100),
		order("P1", day(2024, 1, 1), 1, 100),
		order("P5", day(2024, 1, 1), 1, 100),
	}

	snapshot := ComputeKPIs(orders, nil, 5)
	require.Len(t, snapshot.TopProducts, 3)
	assert.Equal(t, "P1", snapshot.TopProducts[0].ProductID)
	assert.Equal(t, "P5", snapshot.TopProducts[1].ProductID)
	assert.Equal(t, "P9", snapshot.TopProducts[2].ProductID)
}

func TestComputeKPIs_ChurnRate(t *testing.T) {
	scores := []models.CustomerScore{
		{CustomerID: "C1", ChurnProbability: 0.9},
		{CustomerID: "C2", ChurnProbability: 0.7}, // at threshold counts
		{CustomerID: "C3", ChurnProbability: 0.5},
		{CustomerID: "C4", ChurnProbability: 0.1},
	}

	snapshot := ComputeKPIs(nil, scores, 5)
	assert.InDelta(t, 0.5, snapshot.ChurnRate, 1e-9)
}

func TestComputeKPIs_CategoryRanking(t *testing.T) {
	orders := []models.Order{
		{ProductID: "P1", Category: "Books", OrderDate: day(2024, 1, 1), Quantity: 1, Total: 50},
		{ProductID: "P2", Category: "Electronics", OrderDate: day(2024, 1, 1), Quantity: 1, Total: 500},
		{ProductID: "P3", Category: "Books", OrderDate: day(2024, 1, 2), Quantity: 1, Total: 30},
	}

	snapshot := ComputeKPIs(orders, nil, 5)
	require.Len(t, snapshot.RevenueByCategory, 2)
	assert.Equal(t, "Electronics", snapshot.RevenueByCategory[0].Category)
	assert.Equal(t, 500.0, snapshot.RevenueByCategory[0].Revenue)
	assert.Equal(t, "Books", snapshot.RevenueByCategory[1].Category)
	assert.Equal(t, 80.0, snapshot.RevenueByCategory[1].Revenue)
}
