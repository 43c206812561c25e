package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is a single sold line item from an orders CSV upload.
// Orders are immutable once ingested; Total is derived at ingest time
// and drives all revenue aggregates.
type Order struct {
	ID          uuid.UUID `json:"id"`
	OrderDate   time.Time `json:"order_date"`
	CustomerID  string    `json:"customer_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	Total       float64   `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}
