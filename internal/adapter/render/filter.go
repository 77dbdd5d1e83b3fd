package render

import (
	"sort"
	"time"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

const DefaultMaxOrders = 20

// Filter narrows a schedule to what fits on one chart.
type Filter struct {
	MaxOrders int
	Products  []string
	// Machines match either the machine id or its display name.
	Machines []string
}

// Apply keeps operations of the allowed products and machines, then keeps the
// first MaxOrders orders by earliest remaining start. Result is sorted by start.
func (f Filter) Apply(ops []domain.Operation) []domain.Operation {
	maxOrders := f.MaxOrders
	if maxOrders <= 0 {
		maxOrders = DefaultMaxOrders
	}

	products := toSet(f.Products)
	machines := toSet(f.Machines)

	var kept []domain.Operation
	first := make(map[string]time.Time)
	for _, op := range ops {
		if len(products) > 0 && !products[op.Product] {
			continue
		}
		if len(machines) > 0 && !machines[op.Machine] && !machines[op.MachineName] {
			continue
		}
		kept = append(kept, op)
		if t, ok := first[op.OrderID]; !ok || op.Start.Before(t) {
			first[op.OrderID] = op.Start
		}
	}

	ids := make([]string, 0, len(first))
	for id := range first {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := first[ids[i]], first[ids[j]]
		if !a.Equal(b) {
			return a.Before(b)
		}
		return ids[i] < ids[j]
	})
	if len(ids) > maxOrders {
		ids = ids[:maxOrders]
	}
	allowed := toSet(ids)

	result := make([]domain.Operation, 0, len(kept))
	for _, op := range kept {
		if allowed[op.OrderID] {
			result = append(result, op)
		}
	}
	domain.SortByStart(result)
	return result
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v != "" {
			set[v] = true
		}
	}
	return set
}
