package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ecomlytics/ecomlytics-engine/pkg/database"
	"github.com/ecomlytics/ecomlytics-engine/pkg/models"
)

// CustomerRepository provides data access for the customers dataset.
// Uploads are full-replace: ReplaceAll swaps the whole dataset in one
// transaction so readers never observe a half-replaced batch.
type CustomerRepository interface {
	ReplaceAll(ctx context.Context, customers []models.Customer) error
	GetAll(ctx context.Context) ([]models.Customer, error)
}

type customerRepository struct {
	db *database.DB
}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository(db *database.DB) CustomerRepository {
	return &customerRepository{db: db}
}

var _ CustomerRepository = (*customerRepository)(nil)

func (r *customerRepository) ReplaceAll(ctx context.Context, customers []models.Customer) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin customer replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM customers`); err != nil {
		return fmt.Errorf("failed to clear customers: %w", err)
	}

	if len(customers) > 0 {
		rows := make([][]any, len(customers))
		for i, c := range customers {
			rows[i] = []any{c.ID, c.CustomerID, c.Name, c.Email, c.JoinDate}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"customers"},
			[]string{"id", "customer_id", "name", "email", "join_date"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("failed to insert customers: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit customer replace: %w", err)
	}
	return nil
}

func (r *customerRepository) GetAll(ctx context.Context) ([]models.Customer, error) {
	query := `
		SELECT id, customer_id, name, email, join_date, created_at
		FROM customers
		ORDER BY customer_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.Name, &c.Email, &c.JoinDate, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read customers: %w", err)
	}
	return customers, nil
}
