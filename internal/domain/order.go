package domain

import (
	"errors"
	"fmt"
	"time"
)

// Order represents a bulk production order
type Order struct {
	ID      string
	SKU     string
	QtyKg   float64
	DueDate time.Time
}

// NewOrder creates a new order with business rules applied
func NewOrder(id, sku string, qtyKg float64, dueDate time.Time) (*Order, error) {
	order := &Order{
		ID:      id,
		SKU:     sku,
		QtyKg:   qtyKg,
		DueDate: dueDate,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	return order, nil
}

// Validate applies business validation rules
func (o *Order) Validate() error {
	if o.ID == "" {
		return errors.New("order id is required")
	}

	if o.QtyKg <= 0 {
		return fmt.Errorf("order %s: quantity must be positive", o.ID)
	}

	if o.DueDate.IsZero() {
		return fmt.Errorf("order %s: due date is required", o.ID)
	}

	return nil
}

// OrderSet is the universe of known order ids.
type OrderSet map[string]struct{}

// NewOrderSet builds the set of ids from the loaded orders.
func NewOrderSet(orders []Order) OrderSet {
	set := make(OrderSet, len(orders))
	for _, o := range orders {
		set[o.ID] = struct{}{}
	}
	return set
}

// Contains reports whether id is a known order.
func (s OrderSet) Contains(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s[id]
	return ok
}

var (
	ErrUnknownOrder  = errors.New("unknown order")
	ErrSameOrderSwap = errors.New("cannot swap same order")
)
