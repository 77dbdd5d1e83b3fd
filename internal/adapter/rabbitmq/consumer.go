package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YelzhanWeb/bulkplan/internal/adapter/logger"
	"github.com/YelzhanWeb/bulkplan/internal/interfaces"
)

const DefaultReconnectDelay = 5 * time.Second

var errChannelClosed = errors.New("channel closed gracefully")

type consumer struct {
	conn           Connection
	prefetch       int
	reconnectDelay time.Duration
	log            logger.Logger
}

func NewConsumer(conn Connection, prefetch int, log logger.Logger) interfaces.MessageConsumer {
	return &consumer{
		conn:           conn,
		prefetch:       prefetch,
		reconnectDelay: DefaultReconnectDelay,
		log:            log,
	}
}

func (c *consumer) ConsumeCommands(ctx context.Context, handler interfaces.CommandMessageHandler) error {
	return c.loop(ctx, "commands", func() error {
		return c.consumeCommands(ctx, handler)
	})
}

func (c *consumer) ConsumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	return c.loop(ctx, "notifications", func() error {
		return c.consumeNotifications(ctx, handler)
	})
}

// loop restarts consume until ctx is cancelled or consume returns nil.
func (c *consumer) loop(ctx context.Context, name string, consume func() error) error {
	for {
		err := consume()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			return nil
		}

		c.log.Error("consumer_disconnected", fmt.Sprintf("%s consumer disconnected, reconnecting", name), "",
			map[string]interface{}{"consumer": name, "retry_in": c.reconnectDelay.String()}, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnectDelay):
		}

		if c.conn.IsClosed() {
			if err := c.conn.Reconnect(); err != nil {
				if errors.Is(err, ErrConnectionClosed) {
					return err
				}
				c.log.Error("rabbitmq_reconnect_failed", "failed to reconnect", "", nil, err)
			}
		}
	}
}

func (c *consumer) consumeCommands(ctx context.Context, handler interfaces.CommandMessageHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := setupCommandInfrastructure(ch); err != nil {
		return err
	}

	msgs, err := ch.Consume(CommandQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return errChannelClosed

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				// dead-lettered, a redelivery would fail the same way
				c.log.Error("command_rejected", "command message sent to DLQ", msg.CorrelationId,
					map[string]interface{}{"routing_key": msg.RoutingKey}, err)
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

func (c *consumer) consumeNotifications(ctx context.Context, handler interfaces.NotificationHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := declareScheduleExchange(ch); err != nil {
		return err
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", ScheduleExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return errChannelClosed

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			if err := handler(ctx, msg.Body); err != nil {
				c.log.Debug("notification_skipped", "failed to handle notification", "",
					map[string]interface{}{"error": err.Error()})
			}
		}
	}
}
