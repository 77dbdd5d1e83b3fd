package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	amqpAdapter "github.com/YelzhanWeb/bulkplan/internal/adapter/amqp"
	"github.com/YelzhanWeb/bulkplan/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/bulkplan/internal/domain"
	"github.com/YelzhanWeb/bulkplan/internal/interfaces"
)

var subscribeCmd = &cobra.Command{
	Use:     "subscribe",
	Aliases: []string{"notification-subscriber"},
	Short:   "Print schedule change notifications",
	RunE:    runSubscribe,
}

var sendSource string

var sendCmd = &cobra.Command{
	Use:   "send <command text>",
	Short: "Queue a text command for the planner service",
	Example: `  bulkplan send "delay order 5 by 2 hours"
  bulkplan send swap ORD-003 with ORD-007`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendSource, "source", domain.SourceCLI, "Source recorded in the command log")
}

func runSubscribe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer conn.Close()

	lgr.Info("service_started", "Notification subscriber started", "startup", map[string]interface{}{
		"exchange": rabbitmq.ScheduleExchange,
	})

	handler := amqpAdapter.NewNotificationHandler(lgr)
	err = rabbitmq.NewConsumer(conn, 1, lgr).ConsumeNotifications(ctx, handler.HandleNotification)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runSend(cmd *cobra.Command, args []string) error {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer conn.Close()

	msg := interfaces.CommandMessage{
		Text:      strings.Join(args, " "),
		Source:    sendSource,
		RequestID: uuid.NewString(),
	}
	if err := rabbitmq.NewPublisher(conn).PublishCommand(cmd.Context(), msg); err != nil {
		return err
	}

	lgr.Info("command_queued", "Command queued", msg.RequestID, map[string]interface{}{
		"text":        msg.Text,
		"routing_key": rabbitmq.CommandRoutingKey(msg.Source),
	})
	return nil
}
