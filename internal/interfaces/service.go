package interfaces

import (
	"context"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

// Transcriber converts a recorded utterance to text (adapter/deepgram).
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimetype string) (string, error)
}

// Service interfaces (business logic)
type PlannerService interface {
	Current() domain.Schedule
	Base() domain.Schedule
	MachineNames() map[string]string
	ProcessText(ctx context.Context, raw, source string) (CommandResult, error)
	ProcessVoice(ctx context.Context, audio []byte, mimetype string) (CommandResult, error)
	Reset(ctx context.Context)
	Commands() []domain.CommandEntry
	LastTranscript() string
	OrderTimeline(orderID string) ([]domain.Operation, error)
}

// CommandResult is the outcome of one user command.
type CommandResult struct {
	Entry      domain.CommandEntry `json:"entry"`
	Accepted   bool                `json:"accepted"`
	Message    string              `json:"message"`
	Transcript string              `json:"transcript,omitempty"`
}
