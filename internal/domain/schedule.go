package domain

import (
	"sort"
	"time"
)

// Schedule is an ordered collection of operations. Values are never mutated
// after construction; every change produces a new Schedule.
type Schedule struct {
	ops []Operation
}

// NewSchedule copies ops into a new schedule.
func NewSchedule(ops []Operation) Schedule {
	cp := make([]Operation, len(ops))
	copy(cp, ops)
	return Schedule{ops: cp}
}

// Len returns the number of operations.
func (s Schedule) Len() int {
	return len(s.ops)
}

// Operations returns a copy of all operations in insertion order.
func (s Schedule) Operations() []Operation {
	cp := make([]Operation, len(s.ops))
	copy(cp, s.ops)
	return cp
}

// Clone returns an independent copy of the schedule.
func (s Schedule) Clone() Schedule {
	return NewSchedule(s.ops)
}

// ForOrder returns the operations of orderID sorted by sequence.
func (s Schedule) ForOrder(orderID string) []Operation {
	var out []Operation
	for _, op := range s.ops {
		if op.OrderID == orderID {
			out = append(out, op)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// ForMachine returns the operations on machine sorted by (start, end).
func (s Schedule) ForMachine(machine string) []Operation {
	var out []Operation
	for _, op := range s.ops {
		if op.Machine == machine {
			out = append(out, op)
		}
	}
	SortByStart(out)
	return out
}

// HasOrder reports whether the schedule holds any operation of orderID.
func (s Schedule) HasOrder(orderID string) bool {
	for _, op := range s.ops {
		if op.OrderID == orderID {
			return true
		}
	}
	return false
}

// Machines returns the distinct machine ids in first-seen order.
func (s Schedule) Machines() []string {
	return s.distinct(func(op Operation) string { return op.Machine })
}

// OrderIDs returns the distinct order ids in first-seen order.
func (s Schedule) OrderIDs() []string {
	return s.distinct(func(op Operation) string { return op.OrderID })
}

// Products returns the distinct product codes in first-seen order.
func (s Schedule) Products() []string {
	return s.distinct(func(op Operation) string { return op.Product })
}

// FirstStart returns the earliest start among the operations of orderID.
func (s Schedule) FirstStart(orderID string) (time.Time, bool) {
	var first time.Time
	found := false
	for _, op := range s.ops {
		if op.OrderID != orderID {
			continue
		}
		if !found || op.Start.Before(first) {
			first = op.Start
			found = true
		}
	}
	return first, found
}

// Span returns the earliest start and latest end of the schedule.
func (s Schedule) Span() (time.Time, time.Time) {
	var from, to time.Time
	for i, op := range s.ops {
		if i == 0 || op.Start.Before(from) {
			from = op.Start
		}
		if i == 0 || op.End.After(to) {
			to = op.End
		}
	}
	return from, to
}

func (s Schedule) distinct(key func(Operation) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, op := range s.ops {
		k := key(op)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// SortByStart orders ops by (start, end) ascending, keeping ties stable.
func SortByStart(ops []Operation) {
	sort.SliceStable(ops, func(i, j int) bool {
		if !ops[i].Start.Equal(ops[j].Start) {
			return ops[i].Start.Before(ops[j].Start)
		}
		return ops[i].End.Before(ops[j].End)
	})
}
