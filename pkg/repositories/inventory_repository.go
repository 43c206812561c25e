package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ecomlytics/ecomlytics-engine/pkg/database"
	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// InventoryRepository provides data access for the inventory dataset.
// Uploads are full-replace, same contract as customers.
type InventoryRepository interface {
	ReplaceAll(ctx context.Context, items []models.InventoryItem) error
	GetAll(ctx context.Context) ([]models.InventoryItem, error)
}

type inventoryRepository struct {
	db *database.DB
}

// NewInventoryRepository creates a new InventoryRepository.
func NewInventoryRepository(db *database.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

var _ InventoryRepository = (*inventoryRepository)(nil)

func (r *inventoryRepository) ReplaceAll(ctx context.Context, items []models.InventoryItem) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin inventory replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM inventory`); err != nil {
		return fmt.Errorf("failed to clear inventory: %w", err)
	}

	if len(items) > 0 {
		rows := make([][]any, len(items))
		for i, item := range items {
			rows[i] = []any{item.ID, item.ProductID, item.ProductName, item.Category, item.CurrentStock, item.ReorderPoint, item.UnitCost}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"inventory"},
			[]string{"id", "product_id", "product_name", "category", "current_stock", "reorder_point", "unit_cost"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("failed to insert inventory: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit inventory replace: %w", err)
	}
	return nil
}

func (r *inventoryRepository) GetAll(ctx context.Context) ([]models.InventoryItem, error) {
	query := `
		SELECT id, product_id, product_name, category, current_stock, reorder_point, unit_cost, created_at
		FROM inventory
		ORDER BY product_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []models.InventoryItem
	for rows.Next() {
		var item models.InventoryItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Category,
			&item.CurrentStock, &item.ReorderPoint, &item.UnitCost, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read inventory: %w", err)
	}
	return items, nil
}
