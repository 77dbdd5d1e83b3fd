// Package planner holds the schedule mutation engine: the initial
// list scheduler, the per-machine repair pass and the delay/swap operations
// built on top of it. Everything here is pure computation over domain values.
package planner

import (
	"sort"
	"time"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

// DefaultRateKgPerHour is the nominal throughput used to turn quantities into hours.
const DefaultRateKgPerHour = 300.0

// DefaultBaseStart is the first instant any machine is free.
var DefaultBaseStart = time.Date(2025, 11, 3, 6, 0, 0, 0, time.UTC)

type BuildOptions struct {
	Ratios        domain.RatioTable
	Lines         domain.LineMap
	MachineNames  map[string]string
	BaseStart     time.Time
	RateKgPerHour float64
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.Ratios == nil {
		o.Ratios = domain.DefaultRatios()
	}
	if o.Lines == nil {
		o.Lines = domain.DefaultLineMap()
	}
	if o.BaseStart.IsZero() {
		o.BaseStart = DefaultBaseStart
	}
	if o.RateKgPerHour <= 0 {
		o.RateKgPerHour = DefaultRateKgPerHour
	}
	return o
}

// Build places every order first-come first-served by (due date, order id).
// Each operation starts once its machine is free and its predecessor in the
// same order has ended, so the result has no machine overlaps and keeps every
// order's stages sequential.
func Build(orders []domain.Order, opts BuildOptions) domain.Schedule {
	opts = opts.withDefaults()

	sorted := make([]domain.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].DueDate.Equal(sorted[j].DueDate) {
			return sorted[i].DueDate.Before(sorted[j].DueDate)
		}
		return sorted[i].ID < sorted[j].ID
	})

	timeline := NewTimeline(opts.Lines.Machines(), opts.BaseStart)
	ops := make([]domain.Operation, 0, len(sorted)*len(domain.OperationKinds()))

	for _, order := range sorted {
		ratios := opts.Ratios.Lookup(order.SKU)
		totalHours := order.QtyKg / opts.RateKgPerHour

		var prevEnd time.Time
		first := true
		for _, kind := range domain.OperationKinds() {
			machine, ok := opts.Lines[kind]
			if !ok {
				continue
			}

			start := timeline.AvailableAt(machine)
			if !first && prevEnd.After(start) {
				start = prevEnd
			}
			end := start.Add(hours(totalHours * ratios[kind]))

			ops = append(ops, domain.Operation{
				OrderID:     order.ID,
				Kind:        kind,
				Sequence:    kind.Sequence(),
				Machine:     machine,
				MachineName: machineName(opts.MachineNames, machine),
				Start:       start,
				End:         end,
				DueDate:     order.DueDate,
				Product:     order.SKU,
			})

			timeline.Advance(machine, end)
			prevEnd = end
			first = false
		}
	}

	return domain.NewSchedule(ops)
}

func machineName(names map[string]string, machine string) string {
	if name, ok := names[machine]; ok && name != "" {
		return name
	}
	return machine
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
