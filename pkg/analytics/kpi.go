package analytics

import (
	"sort"

	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// ComputeKPIs aggregates the order history and churn scores into the dashboard
// headline. With no orders it returns a zero-valued snapshot with empty
// slices - never an error - so the dashboard renders before the first upload.
// Top products are ranked by revenue descending, ties broken by product_id
// ascending; churn rate is the fraction of scored customers at High risk.
func ComputeKPIs(orders []models.Order, scores []models.CustomerScore, topN int) models.KPISnapshot {
	snapshot := models.KPISnapshot{
		TopProducts:       []models.ProductRevenue{},
		RevenueByCategory: []models.CategoryRevenue{},
	}
	if topN <= 0 {
		topN = 5
	}

	if len(scores) > 0 {
		atRisk := 0
		for _, score := range scores {
			if score.ChurnProbability >= models.HighRiskThreshold {
				atRisk++
			}
		}
		snapshot.ChurnRate = float64(atRisk) / float64(len(scores))
	}

	if len(orders) == 0 {
		return snapshot
	}

	byProduct := make(map[string]*models.ProductRevenue)
	byCategory := make(map[string]float64)
	for _, order := range orders {
		snapshot.TotalRevenue += order.Total
		snapshot.TotalOrders++

		product, ok := byProduct[order.ProductID]
		if !ok {
			product = &models.ProductRevenue{ProductID: order.ProductID, ProductName: order.ProductName}
			byProduct[order.ProductID] = product
		}
		product.Revenue += order.Total

		byCategory[order.Category] += order.Total
	}
	snapshot.AvgOrderValue = snapshot.TotalRevenue / float64(snapshot.TotalOrders)

	products := make([]models.ProductRevenue, 0, len(byProduct))
	for _, product := range byProduct {
		products = append(products, *product)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Revenue != products[j].Revenue {
			return products[i].Revenue > products[j].Revenue
		}
		return products[i].ProductID < products[j].ProductID
	})
	if len(products) > topN {
		products = products[:topN]
	}
	snapshot.TopProducts = products

	categories := make([]models.CategoryRevenue, 0, len(byCategory))
	for category, revenue := range byCategory {
		categories = append(categories, models.CategoryRevenue{Category: category, Revenue: revenue})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Revenue != categories[j].Revenue {
			return categories[i].Revenue > categories[j].Revenue
		}
		return categories[i].Category < categories[j].Category
	})
	snapshot.RevenueByCategory = categories

	return snapshot
}
