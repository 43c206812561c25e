package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem is one row of the inventory dataset, deduplicated by
// ProductID (last-seen wins) and fully replaced on each upload.
type InventoryItem struct {
	ID           uuid.UUID `json:"id"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	Category     string    `json:"category"`
	CurrentStock int       `json:"current_stock"`
	ReorderPoint int       `json:"reorder_point"`
	UnitCost     float64   `json:"unit_cost"`
	CreatedAt    time.Time `json:"created_at"`
}

// InventoryRecommendation is an InventoryItem enriched with demand-derived
// reorder advice. It is a view over the current inventory and the current
// forecast snapshot - never persisted, so it can never go stale relative
// to its inputs.
type InventoryRecommendation struct {
	ProductID           string  `json:"product_id"`
	ProductName         string  `json:"product_name"`
	Category            string  `json:"category"`
	CurrentStock        int     `json:"current_stock"`
	ReorderPoint        int     `json:"reorder_point"`
	UnitCost            float64 `json:"unit_cost"`
	PredictedDemand     float64 `json:"predicted_demand"`
	NeedsReorder        bool    `json:"needs_reorder"`
	RecommendedOrderQty int     `json:"recommended_order_qty"`
}
