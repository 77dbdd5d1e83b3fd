// Package csvsource loads orders and production lines from CSV files with a
// header row.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

var dueDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

type Source struct {
	ordersPath string
	linesPath  string
}

func New(ordersPath, linesPath string) *Source {
	return &Source{ordersPath: ordersPath, linesPath: linesPath}
}

func (s *Source) LoadOrders(ctx context.Context) ([]domain.Order, error) {
	f, err := os.Open(s.ordersPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open orders file: %w", err)
	}
	defer f.Close()

	return ReadOrders(ctx, f)
}

func (s *Source) LoadLines(ctx context.Context) ([]domain.Line, error) {
	f, err := os.Open(s.linesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open lines file: %w", err)
	}
	defer f.Close()

	return ReadLines(ctx, f)
}

// ReadOrders parses order_id, sku_id, qty_kg and due_date columns in any order.
func ReadOrders(ctx context.Context, r io.Reader) ([]domain.Order, error) {
	var orders []domain.Order
	err := readRecords(ctx, r, []string{"order_id", "sku_id", "qty_kg", "due_date"}, func(line int, rec map[string]string) error {
		qty, err := strconv.ParseFloat(rec["qty_kg"], 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid qty_kg %q", line, rec["qty_kg"])
		}
		due, err := parseDueDate(rec["due_date"])
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		o, err := domain.NewOrder(rec["order_id"], rec["sku_id"], qty, due)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		orders = append(orders, *o)
		return nil
	})
	return orders, err
}

// ReadLines parses line_id and name columns.
func ReadLines(ctx context.Context, r io.Reader) ([]domain.Line, error) {
	var lines []domain.Line
	err := readRecords(ctx, r, []string{"line_id", "name"}, func(line int, rec map[string]string) error {
		if rec["line_id"] == "" {
			return fmt.Errorf("line %d: empty line_id", line)
		}
		lines = append(lines, domain.Line{ID: rec["line_id"], Name: rec["name"]})
		return nil
	})
	return lines, err
}

func readRecords(ctx context.Context, r io.Reader, columns []string, fn func(line int, rec map[string]string) error) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range columns {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("missing column %q", col)
		}
	}

	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		rec := make(map[string]string, len(columns))
		for _, col := range columns {
			rec[col] = strings.TrimSpace(row[index[col]])
		}
		if err := fn(line, rec); err != nil {
			return err
		}
	}
}

func parseDueDate(v string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due_date %q", v)
}
