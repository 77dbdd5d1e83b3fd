package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/YelzhanWeb/bulkplan/internal/adapter/logger"
	"github.com/YelzhanWeb/bulkplan/internal/interfaces"
)

const notificationTimeLayout = "Jan 02 15:04"

type NotificationHandler struct {
	logger logger.Logger
	out    io.Writer
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return NewNotificationHandlerWithWriter(logger, os.Stdout)
}

func NewNotificationHandlerWithWriter(logger logger.Logger, out io.Writer) *NotificationHandler {
	return &NotificationHandler{
		logger: logger,
		out:    out,
	}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.ScheduleChangedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Debug("notification_received", fmt.Sprintf("Schedule changed by %s", msg.Intent),
		msg.CommandID, map[string]interface{}{
			"intent":    msg.Intent,
			"order_ids": msg.OrderIDs,
			"source":    msg.Source,
		})

	orders := "-"
	if len(msg.OrderIDs) > 0 {
		orders = strings.Join(msg.OrderIDs, ", ")
	}

	_, err := fmt.Fprintf(h.out, "[%s] %s (%s) orders: %s, %d operations, %s -> %s\n",
		msg.Timestamp.Format("15:04:05"), msg.Message, msg.Source, orders, msg.Operations,
		msg.SpanStart.Format(notificationTimeLayout), msg.SpanEnd.Format(notificationTimeLayout))
	return err
}
