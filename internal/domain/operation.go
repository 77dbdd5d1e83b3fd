package domain

import "time"

type OperationKind string

const (
	OperationMix      OperationKind = "MIX"
	OperationTransfer OperationKind = "TRF"
	OperationFill     OperationKind = "FILL"
	OperationFinish   OperationKind = "FIN"
)

// OperationKinds returns the kinds in processing order.
func OperationKinds() []OperationKind {
	return []OperationKind{OperationMix, OperationTransfer, OperationFill, OperationFinish}
}

// Sequence returns the 1-based rank of the kind within an order, 0 if unknown.
func (k OperationKind) Sequence() int {
	switch k {
	case OperationMix:
		return 1
	case OperationTransfer:
		return 2
	case OperationFill:
		return 3
	case OperationFinish:
		return 4
	default:
		return 0
	}
}

// Operation is one stage of one order placed on one machine
type Operation struct {
	OrderID     string        `json:"order_id"`
	Kind        OperationKind `json:"operation"`
	Sequence    int           `json:"sequence"`
	Machine     string        `json:"machine"`
	MachineName string        `json:"machine_name"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	DueDate     time.Time     `json:"due_date"`
	Product     string        `json:"product"`
}

// Duration returns the processing time of the operation
func (op Operation) Duration() time.Duration {
	return op.End.Sub(op.Start)
}

// Shift moves the operation by delta keeping its duration.
func (op Operation) Shift(delta time.Duration) Operation {
	dur := op.Duration()
	op.Start = op.Start.Add(delta)
	op.End = op.Start.Add(dur)
	return op
}

// StartAt places the operation at start keeping its duration.
func (op Operation) StartAt(start time.Time) Operation {
	dur := op.Duration()
	op.Start = start
	op.End = start.Add(dur)
	return op
}

// Line is a production resource as loaded from the lines source
type Line struct {
	ID   string
	Name string
}

// LineMap binds each operation kind to the single machine that runs it.
type LineMap map[OperationKind]string

// DefaultLineMap returns the reference plant layout.
func DefaultLineMap() LineMap {
	return LineMap{
		OperationMix:      "MIX_1",
		OperationTransfer: "TRANS_1",
		OperationFill:     "FILL_1",
		OperationFinish:   "FIN_1",
	}
}

// Machines returns the machine ids in processing order.
func (m LineMap) Machines() []string {
	machines := make([]string, 0, len(m))
	for _, kind := range OperationKinds() {
		if id, ok := m[kind]; ok {
			machines = append(machines, id)
		}
	}
	return machines
}
