package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	amqpAdapter "github.com/YelzhanWeb/bulkplan/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/bulkplan/internal/adapter/http"
	"github.com/YelzhanWeb/bulkplan/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/bulkplan/internal/interfaces"
	"github.com/YelzhanWeb/bulkplan/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

var (
	servePort     int
	servePrefetch int
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"planner-service"},
	Short:   "Run the planner HTTP API",
	Long: `Run the planner HTTP API. When rabbitmq.enabled is set, schedule changes are
broadcast on the schedule_fanout exchange and text commands queued on
planner_commands are applied as well.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (overrides http.port)")
	serveCmd.Flags().IntVar(&servePrefetch, "prefetch", 1, "RabbitMQ prefetch count")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := cfg.HTTP.Port
	if servePort > 0 {
		port = servePort
	}

	metrics := telemetry.New()

	var (
		publisher interfaces.MessagePublisher
		mqConn    rabbitmq.Connection
	)
	if cfg.RabbitMQ.Enabled {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			return err
		}
		defer conn.Close()

		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		})
		mqConn = conn
		publisher = rabbitmq.NewPublisher(conn)
	}

	svc, closeSources, err := newPlannerService(ctx, cfg, lgr, serviceDeps{publisher: publisher, metrics: metrics})
	if err != nil {
		return err
	}
	defer closeSources()

	handler := httpAdapter.NewPlannerHandler(svc, lgr, cfg.HTTP.MaxBodyBytes)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      httpAdapter.NewRouter(handler, metrics, lgr),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lgr.Info("service_started", fmt.Sprintf("Planner service started on port %d", port), "startup", map[string]interface{}{
			"port":     port,
			"rabbitmq": cfg.RabbitMQ.Enabled,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		lgr.Info("shutdown_initiated", "Shutting down planner service", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if mqConn != nil {
		consumer := rabbitmq.NewConsumer(mqConn, servePrefetch, lgr)
		commands := amqpAdapter.NewCommandHandler(svc, lgr)
		g.Go(func() error {
			err := consumer.ConsumeCommands(gctx, commands.HandleCommand)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		lgr.Error("server_error", "Planner service stopped with error", "runtime", nil, err)
		return err
	}

	lgr.Info("service_stopped", "Planner service stopped", "shutdown", nil)
	return nil
}
