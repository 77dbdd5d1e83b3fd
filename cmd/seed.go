package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/bulkplan/internal/adapter/csvsource"
	"github.com/YelzhanWeb/bulkplan/internal/adapter/postgres"
)

var seedMigrations string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import the CSV orders and lines into PostgreSQL",
	Long: `Import source.orders_path and source.lines_path into PostgreSQL so the planner
can run with source.kind = postgres. Existing rows with the same id are updated.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedMigrations, "migrate", "", "SQL file to execute before importing (e.g. migrations/001_init.sql)")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	src := csvsource.New(cfg.Source.OrdersPath, cfg.Source.LinesPath)
	orders, err := src.LoadOrders(ctx)
	if err != nil {
		return err
	}
	lines, err := src.LoadLines(ctx)
	if err != nil {
		return err
	}

	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if seedMigrations != "" {
		sql, err := os.ReadFile(seedMigrations)
		if err != nil {
			return fmt.Errorf("read migrations: %w", err)
		}
		if _, err := db.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	if err := postgres.NewLineRepository(db).ImportLines(ctx, lines); err != nil {
		return err
	}
	if err := postgres.NewOrderRepository(db).ImportOrders(ctx, orders); err != nil {
		return err
	}

	lgr.Info("seed_completed", "Orders and lines imported", "seed", map[string]interface{}{
		"orders": len(orders),
		"lines":  len(lines),
	})
	return nil
}
