package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

var (
	ErrNotNumeric   = errors.New("not numeric")
	ErrNeedDuration = errors.New("need duration")
)

// ValidationError carries the user-facing reason a record was rejected.
// Err is one of the package or domain sentinels and can be matched with
// errors.Is.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func reject(err error, format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...), Err: err}
}

// Validate checks rec against the known order set and converts it to a typed
// intent. Duration fields are coerced to float64 in place.
func Validate(rec *domain.Record, known domain.OrderSet) (domain.Intent, error) {
	if rec == nil {
		return nil, reject(domain.ErrUnsupportedIntent, "Unsupported intent")
	}

	switch rec.Intent {
	case domain.IntentDelayOrder, domain.IntentSwapOrders:
	default:
		return nil, reject(domain.ErrUnsupportedIntent, "Unsupported intent")
	}

	if !known.Contains(rec.OrderID) {
		return nil, reject(domain.ErrUnknownOrder, "Unknown order: %s", rec.OrderID)
	}

	if rec.Intent == domain.IntentSwapOrders {
		if !known.Contains(rec.OrderID2) {
			return nil, reject(domain.ErrUnknownOrder, "Unknown order: %s", rec.OrderID2)
		}
		if rec.OrderID == rec.OrderID2 {
			return nil, reject(domain.ErrSameOrderSwap, "Cannot swap same order")
		}
		return domain.SwapOrders{OrderID: rec.OrderID, OrderID2: rec.OrderID2}, nil
	}

	fields := []struct {
		name string
		val  *any
	}{
		{"days", &rec.Days},
		{"hours", &rec.Hours},
		{"minutes", &rec.Minutes},
	}

	var values [3]float64
	for i, f := range fields {
		v, err := toFloat(*f.val)
		if err != nil {
			return nil, reject(ErrNotNumeric, "%s must be numeric", f.name)
		}
		*f.val = v
		values[i] = v
	}

	d := domain.DelayOrder{OrderID: rec.OrderID, Days: values[0], Hours: values[1], Minutes: values[2]}
	if d.Days == 0 && d.Hours == 0 && d.Minutes == 0 {
		return nil, reject(ErrNeedDuration, "Need duration (days/hours/minutes)")
	}
	return d, nil
}

func toFloat(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, err
		}
		f = n
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, errors.New("empty string")
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		f = n
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not finite", f)
	}
	return f, nil
}
