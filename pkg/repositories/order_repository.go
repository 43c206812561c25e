package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ecomlytics/ecomlytics-engine/pkg/database"
	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// OrderRepository provides data access for the order history.
// Orders are append-only: uploads add to history, nothing updates in place.
type OrderRepository interface {
	InsertBatch(ctx context.Context, orders []models.Order) error
	GetAll(ctx context.Context) ([]models.Order, error)
	TotalRevenue(ctx context.Context) (float64, error)
}

type orderRepository struct {
	db *database.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *database.DB) OrderRepository {
	return &orderRepository{db: db}
}

var _ OrderRepository = (*orderRepository)(nil)

func (r *orderRepository) InsertBatch(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	rows := make([][]any, len(orders))
	for i, o := range orders {
		rows[i] = []any{o.ID, o.OrderDate, o.CustomerID, o.ProductID, o.ProductName, o.Category, o.Quantity, o.Price, o.Total}
	}

	_, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"orders"},
		[]string{"id", "order_date", "customer_id", "product_id", "product_name", "category", "quantity", "price", "total"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order batch: %w", err)
	}
	return nil
}

func (r *orderRepository) GetAll(ctx context.Context) ([]models.Order, error) {
	query := `
		SELECT id, order_date, customer_id, product_id, product_name, category,
		       quantity, price, total, created_at
		FROM orders
		ORDER BY order_date, customer_id, product_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.OrderDate, &o.CustomerID, &o.ProductID, &o.ProductName,
			&o.Category, &o.Quantity, &o.Price, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(total), 0) FROM orders`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum order revenue: %w", err)
	}
	return total, nil
}
