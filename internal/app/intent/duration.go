package intent

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var durationChunkRe = regexp.MustCompile(`(?i)([\d.,]+|\b\w+\b)\s*(days?|d|hours?|h|minutes?|mins?|m)\b`)

// Duration holds signed day/hour/minute components of a spoken duration.
type Duration struct {
	Days    float64
	Hours   float64
	Minutes float64
}

// IsZero reports whether every component is zero.
func (d Duration) IsZero() bool {
	return d.Days == 0 && d.Hours == 0 && d.Minutes == 0
}

// ParseDuration sums every "<number> <unit>" chunk found in text. Numbers may
// be digits (comma or dot decimals) or words from zero to twenty.
func ParseDuration(text string) Duration {
	var d Duration
	for _, m := range durationChunkRe.FindAllStringSubmatch(text, -1) {
		n, ok := parseNumberToken(m[1])
		if !ok {
			continue
		}
		switch unit := strings.ToLower(m[2]); {
		case strings.HasPrefix(unit, "d"):
			d.Days += n
		case strings.HasPrefix(unit, "h"):
			d.Hours += n
		default:
			d.Minutes += n
		}
	}
	return d
}

func parseNumberToken(tok string) (float64, bool) {
	t := strings.ToLower(strings.TrimSpace(tok))
	t = strings.ReplaceAll(t, "-", " ")
	t = strings.ReplaceAll(t, ",", ".")

	if v, err := strconv.ParseFloat(t, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}

	parts := strings.Fields(t)
	switch len(parts) {
	case 1:
		if v, ok := numberWords[parts[0]]; ok {
			return float64(v), true
		}
	case 2:
		a, okA := numberWords[parts[0]]
		b, okB := numberWords[parts[1]]
		if okA && okB {
			return float64(a + b), true
		}
	}
	return 0, false
}
