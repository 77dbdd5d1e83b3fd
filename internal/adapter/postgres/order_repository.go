package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

// OrderRepository reads production orders and keeps the command audit log.
type OrderRepository struct {
	db DB
}

func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) LoadOrders(ctx context.Context) ([]domain.Order, error) {
	query := `
		SELECT order_id, sku_id, qty_kg, due_date
		FROM orders
		ORDER BY due_date, order_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.SKU, &o.QtyKg, &o.DueDate); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("invalid order %q: %w", o.ID, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	return orders, nil
}

// ImportOrders upserts orders in one transaction.
func (r *OrderRepository) ImportOrders(ctx context.Context, orders []domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (order_id, sku_id, qty_kg, due_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (order_id) DO UPDATE
		SET sku_id = EXCLUDED.sku_id, qty_kg = EXCLUDED.qty_kg, due_date = EXCLUDED.due_date
	`
	for _, o := range orders {
		if _, err := tx.Exec(ctx, query, o.ID, o.SKU, o.QtyKg, o.DueDate); err != nil {
			return fmt.Errorf("failed to upsert order %s: %w", o.ID, err)
		}
	}

	return tx.Commit(ctx)
}

func (r *OrderRepository) RecordCommand(ctx context.Context, entry domain.CommandEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	query := `
		INSERT INTO planner_command_log (id, created_at, source, raw, normalized, payload, accepted, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = r.db.Exec(ctx, query,
		entry.ID, entry.Timestamp, entry.Source, entry.Raw, entry.Normalized,
		payload, entry.Accepted, entry.Message,
	)
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}
