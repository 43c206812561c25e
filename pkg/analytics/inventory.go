package analytics

import (
	"math"

	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// BuildRecommendations joins the current inventory with one consistent
// forecast snapshot. predicted_demand is the sum of the product's forecasted
// quantities over the horizon (0 for products that were never ordered).
// needs_reorder is true iff current_stock <= reorder_point, and the
// recommended quantity covers predicted demand plus the safety buffer back
// up to the reorder point - zero whenever no reorder is needed.
func BuildRecommendations(items []models.InventoryItem, forecasts []models.Forecast) []models.InventoryRecommendation {
	demand := make(map[string]float64, len(forecasts))
	for _, f := range forecasts {
		demand[f.ProductID] += f.PredictedQuantity
	}

	recommendations := make([]models.InventoryRecommendation, 0, len(items))
	for _, item := range items {
		rec := models.InventoryRecommendation{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Category:        item.Category,
			CurrentStock:    item.CurrentStock,
			ReorderPoint:    item.ReorderPoint,
			UnitCost:        item.UnitCost,
			PredictedDemand: demand[item.ProductID],
			NeedsReorder:    item.CurrentStock <= item.ReorderPoint,
		}
		if rec.NeedsReorder {
			qty := rec.PredictedDemand + float64(item.ReorderPoint) - float64(item.CurrentStock)
			if qty > 0 {
				rec.RecommendedOrderQty = int(math.Ceil(qty))
			}
		}
		recommendations = append(recommendations, rec)
	}

	return recommendations
}
