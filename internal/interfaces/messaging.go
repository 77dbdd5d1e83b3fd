package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

// RabbitMQ messages
type ScheduleChangedMessage struct {
	CommandID  string            `json:"command_id"`
	Intent     domain.IntentType `json:"intent"`
	OrderIDs   []string          `json:"order_ids"`
	Message    string            `json:"message"`
	Source     string            `json:"source"`
	Operations int               `json:"operations"`
	SpanStart  time.Time         `json:"span_start"`
	SpanEnd    time.Time         `json:"span_end"`
	Timestamp  time.Time         `json:"timestamp"`
}

type CommandMessage struct {
	Text      string `json:"text"`
	Source    string `json:"source"`
	RequestID string `json:"request_id,omitempty"`
}

// Messaging interfaces (adapter/rabbitmq)
type MessagePublisher interface {
	PublishScheduleChanged(ctx context.Context, msg ScheduleChangedMessage) error
	PublishCommand(ctx context.Context, msg CommandMessage) error
}

type MessageConsumer interface {
	ConsumeCommands(ctx context.Context, handler CommandMessageHandler) error
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type (
	CommandMessageHandler func(ctx context.Context, body []byte) error
	NotificationHandler   func(ctx context.Context, body []byte) error
)
