package planner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

// Repair re-packs every machine used by the touched orders so that no two
// operations on it overlap. Operations are visited in (start, end) order and
// only ever pushed later; durations are preserved. Machines not used by any
// touched order are left as they are.
//
// Pushing an operation can start it before the next stage of its own order
// has room, so orders moved by a pass are re-sequenced and the machines they
// were pushed on are re-packed again, until nothing moves.
func Repair(s domain.Schedule, touched ...string) domain.Schedule {
	ops := s.Operations()

	dirty := machinesOf(ops, touched)
	for pass := 0; len(dirty) > 0 && pass < maxPasses(len(ops)); pass++ {
		moved := make(map[string]struct{})
		for _, m := range dirty {
			for _, orderID := range repackMachine(ops, m) {
				moved[orderID] = struct{}{}
			}
		}
		dirty = resequence(ops, moved)
	}

	return domain.NewSchedule(ops)
}

// Repack runs only the per-machine compaction over the machines of the
// touched orders, without re-sequencing orders afterwards. A pushed stage may
// then start before the previous stage of its own order has ended.
func Repack(s domain.Schedule, touched ...string) domain.Schedule {
	ops := s.Operations()
	for _, m := range machinesOf(ops, touched) {
		repackMachine(ops, m)
	}
	return domain.NewSchedule(ops)
}

// RepairMode selects how machines are repaired after a mutation.
type RepairMode string

const (
	// RepairResequence repacks and re-sequences orders until nothing moves.
	RepairResequence RepairMode = "resequence"
	// RepairRepack runs the single per-machine compaction pass.
	RepairRepack RepairMode = "repack"
)

// ParseRepairMode accepts "resequence", "repack" or an empty string, which
// selects RepairResequence.
func ParseRepairMode(v string) (RepairMode, error) {
	switch RepairMode(strings.ToLower(strings.TrimSpace(v))) {
	case "", RepairResequence:
		return RepairResequence, nil
	case RepairRepack:
		return RepairRepack, nil
	default:
		return "", fmt.Errorf("unknown repair mode %q", v)
	}
}

func (m RepairMode) apply(s domain.Schedule, touched ...string) domain.Schedule {
	if m == RepairRepack {
		return Repack(s, touched...)
	}
	return Repair(s, touched...)
}

func maxPasses(n int) int {
	return 4*n + 16
}

// machinesOf returns the machines used by orders, in first-seen order.
func machinesOf(ops []domain.Operation, orders []string) []string {
	want := make(map[string]struct{}, len(orders))
	for _, id := range orders {
		want[id] = struct{}{}
	}

	seen := make(map[string]struct{})
	var machines []string
	for _, op := range ops {
		if _, ok := want[op.OrderID]; !ok {
			continue
		}
		if _, ok := seen[op.Machine]; ok {
			continue
		}
		seen[op.Machine] = struct{}{}
		machines = append(machines, op.Machine)
	}
	return machines
}

// repackMachine compacts the operations on machine in place and returns the
// orders whose operations it moved.
func repackMachine(ops []domain.Operation, machine string) []string {
	var idx []int
	for i, op := range ops {
		if op.Machine == machine {
			idx = append(idx, i)
		}
	}

	sort.SliceStable(idx, func(a, b int) bool {
		x, y := ops[idx[a]], ops[idx[b]]
		if !x.Start.Equal(y.Start) {
			return x.Start.Before(y.Start)
		}
		return x.End.Before(y.End)
	})

	var moved []string
	var lastEnd time.Time
	haveLast := false
	for _, i := range idx {
		if haveLast && ops[i].Start.Before(lastEnd) {
			ops[i] = ops[i].StartAt(lastEnd)
			moved = append(moved, ops[i].OrderID)
		}
		lastEnd = ops[i].End
		haveLast = true
	}
	return moved
}

// resequence pushes each stage of the given orders to start no earlier than
// its predecessor's end. It returns the machines where something moved.
func resequence(ops []domain.Operation, orders map[string]struct{}) []string {
	if len(orders) == 0 {
		return nil
	}

	byOrder := make(map[string][]int)
	var orderIDs []string
	for i, op := range ops {
		if _, ok := orders[op.OrderID]; !ok {
			continue
		}
		if _, ok := byOrder[op.OrderID]; !ok {
			orderIDs = append(orderIDs, op.OrderID)
		}
		byOrder[op.OrderID] = append(byOrder[op.OrderID], i)
	}

	seen := make(map[string]struct{})
	var dirty []string
	for _, orderID := range orderIDs {
		idx := byOrder[orderID]
		sort.SliceStable(idx, func(a, b int) bool {
			return ops[idx[a]].Sequence < ops[idx[b]].Sequence
		})
		for k := 1; k < len(idx); k++ {
			prev, cur := ops[idx[k-1]], ops[idx[k]]
			if !cur.Start.Before(prev.End) {
				continue
			}
			ops[idx[k]] = cur.StartAt(prev.End)
			if _, ok := seen[cur.Machine]; !ok {
				seen[cur.Machine] = struct{}{}
				dirty = append(dirty, cur.Machine)
			}
		}
	}
	return dirty
}
