package planner

import (
	"fmt"
	"time"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

// DelayDuration converts signed day/hour/minute components into one duration.
func DelayDuration(days, hours, minutes float64) time.Duration {
	return time.Duration(days*float64(24*time.Hour) +
		hours*float64(time.Hour) +
		minutes*float64(time.Minute))
}

// Mutator applies schedule mutations with a fixed repair mode. The zero value
// uses RepairResequence.
type Mutator struct {
	Mode RepairMode
}

// Delay shifts every operation of orderID by days+hours+minutes (negative
// values advance the order) and repairs the machines it runs on.
func Delay(s domain.Schedule, orderID string, days, hours, minutes float64) domain.Schedule {
	return Mutator{}.Delay(s, orderID, days, hours, minutes)
}

// DelayBy is Delay with an exact duration.
func DelayBy(s domain.Schedule, orderID string, delta time.Duration) domain.Schedule {
	return Mutator{}.DelayBy(s, orderID, delta)
}

func Swap(s domain.Schedule, a, b string) (domain.Schedule, error) {
	return Mutator{}.Swap(s, a, b)
}

func Apply(s domain.Schedule, intent domain.Intent) (domain.Schedule, error) {
	return Mutator{}.Apply(s, intent)
}

func (m Mutator) Delay(s domain.Schedule, orderID string, days, hours, minutes float64) domain.Schedule {
	return m.DelayBy(s, orderID, DelayDuration(days, hours, minutes))
}

func (m Mutator) DelayBy(s domain.Schedule, orderID string, delta time.Duration) domain.Schedule {
	ops := s.Operations()
	for i := range ops {
		if ops[i].OrderID == orderID {
			ops[i] = ops[i].Shift(delta)
		}
	}
	return m.Mode.apply(domain.NewSchedule(ops), orderID)
}

// Swap anchors each order at the other's former first start and repairs after
// each move. Only per-machine non-overlap is guaranteed afterwards; orders of
// different length do not end up exactly interchanged.
func (m Mutator) Swap(s domain.Schedule, a, b string) (domain.Schedule, error) {
	if a == b {
		return s, domain.ErrSameOrderSwap
	}

	startA, ok := s.FirstStart(a)
	if !ok {
		return s, fmt.Errorf("%w: %s", domain.ErrUnknownOrder, a)
	}
	startB, ok := s.FirstStart(b)
	if !ok {
		return s, fmt.Errorf("%w: %s", domain.ErrUnknownOrder, b)
	}

	deltaA := startB.Sub(startA)
	deltaB := startA.Sub(startB)

	out := m.DelayBy(s, a, deltaA)
	out = m.DelayBy(out, b, deltaB)
	return out, nil
}

// Apply runs a validated intent against s.
func (m Mutator) Apply(s domain.Schedule, intent domain.Intent) (domain.Schedule, error) {
	switch in := intent.(type) {
	case domain.DelayOrder:
		if !s.HasOrder(in.OrderID) {
			return s, fmt.Errorf("%w: %s", domain.ErrUnknownOrder, in.OrderID)
		}
		return m.Delay(s, in.OrderID, in.Days, in.Hours, in.Minutes), nil
	case domain.SwapOrders:
		return m.Swap(s, in.OrderID, in.OrderID2)
	default:
		return s, domain.ErrUnsupportedIntent
	}
}
