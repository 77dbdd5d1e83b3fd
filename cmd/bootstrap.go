package main

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/bulkplan/internal/adapter/csvsource"
	"github.com/YelzhanWeb/bulkplan/internal/adapter/deepgram"
	"github.com/YelzhanWeb/bulkplan/internal/adapter/logger"
	"github.com/YelzhanWeb/bulkplan/internal/adapter/openai"
	"github.com/YelzhanWeb/bulkplan/internal/adapter/postgres"
	"github.com/YelzhanWeb/bulkplan/internal/app/intent"
	"github.com/YelzhanWeb/bulkplan/internal/app/planner"
	"github.com/YelzhanWeb/bulkplan/internal/app/session"
	"github.com/YelzhanWeb/bulkplan/internal/config"
	"github.com/YelzhanWeb/bulkplan/internal/domain"
	"github.com/YelzhanWeb/bulkplan/internal/interfaces"
)

type sources struct {
	orders   interfaces.OrderSource
	lines    interfaces.LineSource
	recorder interfaces.CommandRecorder
	close    func()
}

// openSources picks CSV files or PostgreSQL according to source.kind.
func openSources(ctx context.Context, cfg *config.Config, lgr logger.Logger) (sources, error) {
	if cfg.Source.Kind != config.SourcePostgres {
		src := csvsource.New(cfg.Source.OrdersPath, cfg.Source.LinesPath)
		return sources{orders: src, lines: src, close: func() {}}, nil
	}

	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return sources{}, err
	}
	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	orders := postgres.NewOrderRepository(db)
	s := sources{orders: orders, lines: postgres.NewLineRepository(db), close: db.Close}
	if cfg.Source.RecordCommands {
		s.recorder = orders
	}
	return s, nil
}

type plan struct {
	orders []domain.Order
	base   domain.Schedule
	names  map[string]string
}

// buildPlan loads orders and lines and runs the initial scheduler.
func buildPlan(ctx context.Context, cfg *config.Config, src sources) (plan, error) {
	orders, err := src.orders.LoadOrders(ctx)
	if err != nil {
		return plan{}, fmt.Errorf("load orders: %w", err)
	}
	lines, err := src.lines.LoadLines(ctx)
	if err != nil {
		return plan{}, fmt.Errorf("load lines: %w", err)
	}
	start, err := cfg.Planner.Start()
	if err != nil {
		return plan{}, err
	}

	names := make(map[string]string, len(lines))
	for _, l := range lines {
		names[l.ID] = l.Name
	}

	base := planner.Build(orders, planner.BuildOptions{
		Ratios:        cfg.Planner.RatioTable(),
		Lines:         cfg.Planner.LineMap(),
		MachineNames:  names,
		BaseStart:     start,
		RateKgPerHour: cfg.Planner.RateKgPerHour,
	})
	return plan{orders: orders, base: base, names: names}, nil
}

// extractorChain tries the regex grammar first and the language model second.
func extractorChain(cfg *config.Config) intent.Chain {
	chain := intent.Chain{intent.RegexExtractor{}}
	if cfg.OpenAI.APIKey != "" {
		chain = append(chain, openai.NewExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout))
	}
	return append(chain, intent.Fallback)
}

func newTranscriber(cfg *config.Config) interfaces.Transcriber {
	if cfg.Deepgram.APIKey == "" {
		return nil
	}
	return deepgram.NewTranscriber(cfg.Deepgram.APIKey, cfg.Deepgram.Model, cfg.Deepgram.Language, cfg.Deepgram.BaseURL, cfg.Deepgram.Timeout)
}

type serviceDeps struct {
	publisher interfaces.MessagePublisher
	metrics   session.Metrics
}

// newPlannerService wires the session around the loaded plan. The returned
// func releases the order source.
func newPlannerService(ctx context.Context, cfg *config.Config, lgr logger.Logger, deps serviceDeps) (*session.Service, func(), error) {
	src, err := openSources(ctx, cfg, lgr)
	if err != nil {
		return nil, nil, err
	}

	p, err := buildPlan(ctx, cfg, src)
	if err != nil {
		src.close()
		return nil, nil, err
	}

	lgr.Info("schedule_built", "Initial schedule built", "startup", map[string]interface{}{
		"orders":     len(p.orders),
		"operations": p.base.Len(),
		"source":     cfg.Source.Kind,
	})

	svc := session.NewService(session.Config{
		Orders:       p.orders,
		Base:         p.base,
		MachineNames: p.names,
		Extractor:    extractorChain(cfg),
		Transcriber:  newTranscriber(cfg),
		Publisher:    deps.publisher,
		Recorder:     src.recorder,
		Metrics:      deps.metrics,
		Location:     cfg.App.Location(),
		LogSize:      cfg.App.CommandLogSize,
		Repair:       cfg.Planner.RepairMode(),
	}, lgr)

	return svc, src.close, nil
}
