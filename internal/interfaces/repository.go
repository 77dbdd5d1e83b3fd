package interfaces

import (
	"context"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

// Input sources (adapter/postgres, adapter/csvsource)
type OrderSource interface {
	LoadOrders(ctx context.Context) ([]domain.Order, error)
}

type LineSource interface {
	LoadLines(ctx context.Context) ([]domain.Line, error)
}

// CommandRecorder persists processed commands for audit.
type CommandRecorder interface {
	RecordCommand(ctx context.Context, entry domain.CommandEntry) error
}
