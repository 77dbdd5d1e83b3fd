package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/YelzhanWeb/bulkplan/internal/adapter/logger"
	"github.com/YelzhanWeb/bulkplan/internal/domain"
	"github.com/YelzhanWeb/bulkplan/internal/interfaces"
)

var ErrEmptyText = errors.New("command message has no text")

type CommandHandler struct {
	service interfaces.PlannerService
	logger  logger.Logger
}

func NewCommandHandler(service interfaces.PlannerService, logger logger.Logger) *CommandHandler {
	return &CommandHandler{
		service: service,
		logger:  logger,
	}
}

// HandleCommand runs a queued text command against the planner. A rejected
// command is still a handled message; only undecodable ones return an error.
func (h *CommandHandler) HandleCommand(ctx context.Context, body []byte) error {
	var msg interfaces.CommandMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse command message", "", nil, err)
		return err
	}

	if strings.TrimSpace(msg.Text) == "" {
		return ErrEmptyText
	}

	source := msg.Source
	if source == "" {
		source = domain.SourceAMQP
	}
	if msg.RequestID != "" {
		ctx = logger.WithRequestID(ctx, msg.RequestID)
	}

	res, err := h.service.ProcessText(ctx, msg.Text, source)
	if err != nil {
		return fmt.Errorf("failed to process command: %w", err)
	}

	h.logger.Debug("command_consumed", res.Message, msg.RequestID, map[string]interface{}{
		"accepted": res.Accepted,
		"source":   source,
	})
	return nil
}
