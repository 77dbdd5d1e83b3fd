package domain

import "errors"

// ErrUnsupportedIntent is returned for anything other than a delay or swap.
var ErrUnsupportedIntent = errors.New("unsupported intent")

type IntentType string

const (
	IntentDelayOrder IntentType = "delay_order"
	IntentSwapOrders IntentType = "swap_orders"
	IntentUnknown    IntentType = "unknown"
)

// Record is the raw output of an intent extractor. Duration fields stay
// untyped until the validator coerces them.
type Record struct {
	Intent   IntentType `json:"intent"`
	OrderID  string     `json:"order_id"`
	OrderID2 string     `json:"order_id_2,omitempty"`
	Days     any        `json:"days,omitempty"`
	Hours    any        `json:"hours,omitempty"`
	Minutes  any        `json:"minutes,omitempty"`
	Raw      string     `json:"raw,omitempty"`
	Source   string     `json:"_source,omitempty"`
	Error    string     `json:"_error,omitempty"`
}

// UnknownRecord returns a record that no mutation accepts.
func UnknownRecord(raw, source string) Record {
	return Record{Intent: IntentUnknown, Raw: raw, Source: source}
}

// Intent is a validated scheduling command
type Intent interface {
	Type() IntentType
}

// DelayOrder shifts every operation of an order by a signed duration.
type DelayOrder struct {
	OrderID string
	Days    float64
	Hours   float64
	Minutes float64
}

func (DelayOrder) Type() IntentType { return IntentDelayOrder }

// Advances reports whether any component moves the order earlier.
func (d DelayOrder) Advances() bool {
	return d.Days < 0 || d.Hours < 0 || d.Minutes < 0
}

// SwapOrders anchors each order at the other's former first start.
type SwapOrders struct {
	OrderID  string
	OrderID2 string
}

func (SwapOrders) Type() IntentType { return IntentSwapOrders }

type Unknown struct{}

func (Unknown) Type() IntentType { return IntentUnknown }
