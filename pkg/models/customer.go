package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is one row of the customers dataset. Uploads are full-replace:
// the latest batch supersedes any prior one, deduplicated by CustomerID
// with the last-seen row winning.
type Customer struct {
	ID         uuid.UUID `json:"id"`
	CustomerID string    `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	JoinDate   time.Time `json:"join_date"`
	CreatedAt  time.Time `json:"created_at"`
}
