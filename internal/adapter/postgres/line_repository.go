package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

type LineRepository struct {
	db DB
}

func NewLineRepository(db DB) *LineRepository {
	return &LineRepository{db: db}
}

func (r *LineRepository) LoadLines(ctx context.Context) ([]domain.Line, error) {
	query := `
		SELECT line_id, name
		FROM lines
		ORDER BY line_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.Line
	for rows.Next() {
		var line domain.Line
		if err := rows.Scan(&line.ID, &line.Name); err != nil {
			return nil, fmt.Errorf("failed to scan line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}

	return lines, nil
}

func (r *LineRepository) ImportLines(ctx context.Context, lines []domain.Line) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO lines (line_id, name)
		VALUES ($1, $2)
		ON CONFLICT (line_id) DO UPDATE SET name = EXCLUDED.name
	`
	for _, line := range lines {
		if _, err := tx.Exec(ctx, query, line.ID, line.Name); err != nil {
			return fmt.Errorf("failed to upsert line %s: %w", line.ID, err)
		}
	}

	return tx.Commit(ctx)
}
