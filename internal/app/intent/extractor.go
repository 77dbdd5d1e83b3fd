package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/YelzhanWeb/bulkplan/internal/domain"
)

const SourceRegex = "regex"

// Extractor turns normalized text into an intent record. The boolean is
// false when the extractor has no answer and the next one should be asked.
type Extractor interface {
	Extract(ctx context.Context, text string) (domain.Record, bool)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, text string) (domain.Record, bool)

func (f ExtractorFunc) Extract(ctx context.Context, text string) (domain.Record, bool) {
	return f(ctx, text)
}

// Chain asks each extractor in turn; the first answer wins. When nobody
// answers the result is an unknown intent.
type Chain []Extractor

func (c Chain) Extract(ctx context.Context, text string) domain.Record {
	for _, e := range c {
		if e == nil {
			continue
		}
		if rec, ok := e.Extract(ctx, text); ok {
			return rec
		}
	}
	return domain.UnknownRecord(text, "chain")
}

// Fallback always answers with an unknown intent; it terminates a chain
// when no external model is configured.
var Fallback = ExtractorFunc(func(_ context.Context, text string) (domain.Record, bool) {
	return domain.UnknownRecord(text, "fallback"), true
})

var (
	swapRe      = regexp.MustCompile(`(?:^|\b)(swap|switch)\s+(ord-\d{3})\s*(?:with|and|&)?\s*(ord-\d{3})\b`)
	advanceRe   = regexp.MustCompile(`\b(advanced?|bring\s+forward|pull\s+in)\b`)
	delayByRe   = regexp.MustCompile(`(delay|push|postpone)\s+(ord-\d{3}).*?\bby\b\s+(.+)$`)
	delayUnitRe = regexp.MustCompile(`(delay|push|postpone)\s+(ord-\d{3}).*?(days?|d|hours?|h|minutes?|mins?|m)\b`)
)

// RegexExtractor recognizes the common phrasings of delay, advance and swap
// commands. It expects order references already normalized to ORD-###.
type RegexExtractor struct{}

func (RegexExtractor) Extract(_ context.Context, text string) (domain.Record, bool) {
	rec := ExtractRegex(text)
	return rec, rec.Intent != domain.IntentUnknown
}

// ExtractRegex applies the regex grammar and returns an unknown record when
// nothing matches.
func ExtractRegex(text string) domain.Record {
	low := strings.ToLower(strings.TrimSpace(text))

	if m := swapRe.FindStringSubmatch(low); m != nil {
		return domain.Record{
			Intent:   domain.IntentSwapOrders,
			OrderID:  strings.ToUpper(m[2]),
			OrderID2: strings.ToUpper(m[3]),
			Source:   SourceRegex,
		}
	}

	sign := 1.0
	if advanceRe.MatchString(low) {
		sign = -1
		low = advanceRe.ReplaceAllString(low, "delay")
	}

	if m := delayByRe.FindStringSubmatch(low); m != nil {
		if d := ParseDuration(m[3]); !d.IsZero() {
			return delayRecord(m[2], d, sign)
		}
	}

	if m := delayUnitRe.FindStringSubmatch(low); m != nil {
		if d := ParseDuration(low); !d.IsZero() {
			return delayRecord(m[2], d, sign)
		}
	}

	return domain.UnknownRecord(text, SourceRegex)
}

func delayRecord(orderID string, d Duration, sign float64) domain.Record {
	return domain.Record{
		Intent:  domain.IntentDelayOrder,
		OrderID: strings.ToUpper(orderID),
		Days:    signed(sign, d.Days),
		Hours:   signed(sign, d.Hours),
		Minutes: signed(sign, d.Minutes),
		Source:  SourceRegex,
	}
}

func signed(sign, v float64) float64 {
	if v == 0 {
		return 0
	}
	return sign * v
}
