package intent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

func knownOrders() domain.OrderSet {
	return domain.NewOrderSet([]domain.Order{{ID: "ORD-001"}, {ID: "ORD-002"}, {ID: "ORD-005"}})
}

func TestNormalizeOrderReferences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"delay order seven by 2 days", "delay ORD-007 by 2 days"},
		{"delay order 52 by 1 hour", "delay ORD-052 by 1 hour"},
		{"delay order number 3 by 1 hour", "delay ORD-003 by 1 hour"},
		{"push Order #5 two hours", "push ORD-005 two hours"},
		{"swap ord 1 and order twelve", "swap ORD-001 and ORD-012"},
		{"order 101", "order 101"},
		{"order 0", "order 0"},
		{"order #250", "order #250"},
		{"the order is late", "the order is late"},
		{"delay ORD-004 by 1 day", "delay ORD-004 by 1 day"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeOrderReferences(tt.in))
		})
	}
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, Duration{Days: 2}, ParseDuration("2 days"))
	assert.Equal(t, Duration{Hours: 1, Minutes: 30}, ParseDuration("1 hour and 30 minutes"))
	assert.Equal(t, Duration{Hours: 1.5}, ParseDuration("1,5h"))
	assert.Equal(t, Duration{Days: 3, Hours: 4}, ParseDuration("three days four hours"))
	assert.True(t, ParseDuration("soon").IsZero())
}

func TestExtractRegex(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.Record
	}{
		{
			name: "delay by",
			in:   "Delay ORD-005 by 2 hours",
			want: domain.Record{Intent: domain.IntentDelayOrder, OrderID: "ORD-005", Days: 0.0, Hours: 2.0, Minutes: 0.0, Source: SourceRegex},
		},
		{
			name: "advance",
			in:   "advance ORD-003 by 1 day",
			want: domain.Record{Intent: domain.IntentDelayOrder, OrderID: "ORD-003", Days: -1.0, Hours: 0.0, Minutes: 0.0, Source: SourceRegex},
		},
		{
			name: "pull in",
			in:   "pull in ORD-010 by 45 minutes",
			want: domain.Record{Intent: domain.IntentDelayOrder, OrderID: "ORD-010", Days: 0.0, Hours: 0.0, Minutes: -45.0, Source: SourceRegex},
		},
		{
			name: "unit without by",
			in:   "push ORD-004 3h",
			want: domain.Record{Intent: domain.IntentDelayOrder, OrderID: "ORD-004", Days: 0.0, Hours: 3.0, Minutes: 0.0, Source: SourceRegex},
		},
		{
			name: "swap",
			in:   "swap ORD-001 with ORD-002",
			want: domain.Record{Intent: domain.IntentSwapOrders, OrderID: "ORD-001", OrderID2: "ORD-002", Source: SourceRegex},
		},
		{
			name: "switch and",
			in:   "please switch ord-007 and ord-009",
			want: domain.Record{Intent: domain.IntentSwapOrders, OrderID: "ORD-007", OrderID2: "ORD-009", Source: SourceRegex},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractRegex(tt.in))
		})
	}
}

func TestExtractRegexNoMatch(t *testing.T) {
	rec := ExtractRegex("what's the weather")
	assert.Equal(t, domain.IntentUnknown, rec.Intent)
	assert.Equal(t, "what's the weather", rec.Raw)

	_, ok := RegexExtractor{}.Extract(context.Background(), "delay ORD-001 a bit")
	assert.False(t, ok)
}

func TestChainFirstAnswerWins(t *testing.T) {
	var calls []string
	stage := func(name string, answer bool) Extractor {
		return ExtractorFunc(func(_ context.Context, text string) (domain.Record, bool) {
			calls = append(calls, name)
			return domain.Record{Intent: domain.IntentUnknown, Raw: text, Source: name}, answer
		})
	}

	chain := Chain{stage("a", false), nil, stage("b", true), stage("c", true)}
	rec := chain.Extract(context.Background(), "hello")

	assert.Equal(t, "b", rec.Source)
	assert.Equal(t, []string{"a", "b"}, calls)

	rec = Chain{RegexExtractor{}, Fallback}.Extract(context.Background(), "nonsense")
	assert.Equal(t, "fallback", rec.Source)

	rec = Chain{}.Extract(context.Background(), "nonsense")
	assert.Equal(t, domain.IntentUnknown, rec.Intent)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		rec     *domain.Record
		message string
		target  error
	}{
		{
			name:    "unknown order",
			rec:     &domain.Record{Intent: domain.IntentDelayOrder, OrderID: "ORD-999", Days: 1},
			message: "Unknown order: ORD-999",
			target:  domain.ErrUnknownOrder,
		},
		{
			name:    "unknown second order",
			rec:     &domain.Record{Intent: domain.IntentSwapOrders, OrderID: "ORD-001", OrderID2: "ORD-404"},
			message: "Unknown order: ORD-404",
			target:  domain.ErrUnknownOrder,
		},
		{
			name:    "same order swap",
			rec:     &domain.Record{Intent: domain.IntentSwapOrders, OrderID: "ORD-001", OrderID2: "ORD-001"},
			message: "Cannot swap same order",
			target:  domain.ErrSameOrderSwap,
		},
		{
			name:    "zero duration",
			rec:     &domain.Record{Intent: domain.IntentDelayOrder, OrderID: "ORD-001", Days: 0, Hours: 0, Minutes: 0},
			message: "Need duration (days/hours/minutes)",
			target:  ErrNeedDuration,
		},
		{
			name:    "missing duration",
			rec:     &domain.Record{Intent: domain.IntentDelayOrder, OrderID: "ORD-001"},
			message: "Need duration (days/hours/minutes)",
			target:  ErrNeedDuration,
		},
		{
			name:    "non numeric",
			rec:     &domain.Record{Intent: domain.IntentDelayOrder, OrderID: "ORD-001", Hours: "a couple"},
			message: "hours must be numeric",
			target:  ErrNotNumeric,
		},
		{
			name:    "empty string",
			rec:     &domain.Record{Intent: domain.IntentDelayOrder, OrderID: "ORD-001", Days: "", Hours: "2"},
			message: "days must be numeric",
			target:  ErrNotNumeric,
		},
		{
			name:    "blank string",
			rec:     &domain.Record{Intent: domain.IntentDelayOrder, OrderID: "ORD-001", Minutes: "  ", Hours: 1},
			message: "minutes must be numeric",
			target:  ErrNotNumeric,
		},
		{
			name:    "bool",
			rec:     &domain.Record{Intent: domain.IntentDelayOrder, OrderID: "ORD-001", Days: true},
			message: "days must be numeric",
			target:  ErrNotNumeric,
		},
		{
			name:    "unknown intent",
			rec:     &domain.Record{Intent: domain.IntentUnknown, OrderID: "ORD-001"},
			message: "Unsupported intent",
			target:  domain.ErrUnsupportedIntent,
		},
		{
			name:    "nil record",
			message: "Unsupported intent",
			target:  domain.ErrUnsupportedIntent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.rec, knownOrders())
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Equal(t, tt.message, err.Error())
			assert.ErrorIs(t, err, tt.target)

			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestValidateCoercesNumbers(t *testing.T) {
	rec := &domain.Record{
		Intent:  domain.IntentDelayOrder,
		OrderID: "ORD-005",
		Days:    "1",
		Hours:   json.Number("2.5"),
		Minutes: -15,
	}

	got, err := Validate(rec, knownOrders())
	require.NoError(t, err)
	assert.Equal(t, domain.DelayOrder{OrderID: "ORD-005", Days: 1, Hours: 2.5, Minutes: -15}, got)
	assert.Equal(t, 1.0, rec.Days)
	assert.Equal(t, 2.5, rec.Hours)
	assert.Equal(t, -15.0, rec.Minutes)
}

func TestValidateSwap(t *testing.T) {
	rec := &domain.Record{Intent: domain.IntentSwapOrders, OrderID: "ORD-001", OrderID2: "ORD-002"}
	got, err := Validate(rec, knownOrders())
	require.NoError(t, err)
	assert.Equal(t, domain.SwapOrders{OrderID: "ORD-001", OrderID2: "ORD-002"}, got)
}

func TestNormalizedTextFlowsThroughRegex(t *testing.T) {
	text := NormalizeOrderReferences("Advance order five by 30 minutes")
	rec := ExtractRegex(text)

	got, err := Validate(&rec, knownOrders())
	require.NoError(t, err)
	assert.Equal(t, domain.DelayOrder{OrderID: "ORD-005", Minutes: -30}, got)
}
