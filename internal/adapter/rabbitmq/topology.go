package rabbitmq

import (
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ScheduleExchange   = "schedule_fanout"
	CommandExchange    = "planner_topic"
	CommandDLXExchange = "planner_dlx"
	CommandQueue       = "planner_commands"
	CommandDLQ         = "planner_commands_dlq"
	CommandBindingKey  = "command.#"
)

// CommandRoutingKey is the key commands from source are published under.
func CommandRoutingKey(source string) string {
	if source == "" {
		source = "unknown"
	}
	return "command." + strings.ReplaceAll(source, "/", ".")
}

func declareScheduleExchange(ch Channel) error {
	if err := ch.ExchangeDeclare(ScheduleExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare schedule exchange: %w", err)
	}
	return nil
}

func declareCommandExchange(ch Channel) error {
	if err := ch.ExchangeDeclare(CommandExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare command exchange: %w", err)
	}
	return nil
}

// setupCommandInfrastructure declares the command queue and its dead-letter queue.
func setupCommandInfrastructure(ch Channel) error {
	if err := declareCommandExchange(ch); err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(CommandDLXExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLX exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(CommandDLQ, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}
	if err := ch.QueueBind(CommandDLQ, "#", CommandDLXExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	args := amqp.Table{"x-dead-letter-exchange": CommandDLXExchange}
	q, err := ch.QueueDeclare(CommandQueue, true, false, false, false, args)
	if err != nil {
		return fmt.Errorf("failed to declare command queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, CommandBindingKey, CommandExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind command queue: %w", err)
	}

	return nil
}
