package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	minOrderNumber = 1
	maxOrderNumber = 100
)

var numberWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
}

var (
	orderRefRe  = regexp.MustCompile(`(?i)\b(ord(?:er)?)\s*(?:number\s*)?(?P<num>\d{1,3}|\w+)\b`)
	orderHashRe = regexp.MustCompile(`(?i)\border\s*#(\d{1,3})\b`)
)

// FormatOrderID renders n as the canonical ORD-### token.
func FormatOrderID(n int) string {
	return fmt.Sprintf("ORD-%03d", n)
}

// NormalizeOrderReferences rewrites spoken or typed order references such as
// "order 52", "order number seven" or "order #5" into ORD-### tokens.
// Numbers outside 1..100 and unrecognized words are left as they are.
func NormalizeOrderReferences(text string) string {
	numIdx := orderRefRe.SubexpIndex("num")
	text = replaceSubmatches(text, orderRefRe, func(match []string) (string, bool) {
		n, ok := orderNumber(match[numIdx])
		if !ok {
			return "", false
		}
		return FormatOrderID(n), true
	})

	return replaceSubmatches(text, orderHashRe, func(match []string) (string, bool) {
		if !isDigits(match[1]) {
			return "", false
		}
		n, _ := strconv.Atoi(match[1])
		if n < minOrderNumber || n > maxOrderNumber {
			return "", false
		}
		return FormatOrderID(n), true
	})
}

func orderNumber(raw string) (int, bool) {
	var n int
	if isDigits(raw) {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, false
		}
		n = v
	} else if v, ok := numberWords[strings.ToLower(raw)]; ok {
		n = v
	} else {
		return 0, false
	}

	if n < minOrderNumber || n > maxOrderNumber {
		return 0, false
	}
	return n, true
}

// replaceSubmatches replaces each match of re with repl's result; when repl
// declines, the original text of the match is kept.
func replaceSubmatches(text string, re *regexp.Regexp, repl func([]string) (string, bool)) string {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		match := make([]string, len(loc)/2)
		for i := range match {
			if loc[2*i] >= 0 {
				match[i] = text[loc[2*i]:loc[2*i+1]]
			}
		}

		b.WriteString(text[last:loc[0]])
		if out, ok := repl(match); ok {
			b.WriteString(out)
		} else {
			b.WriteString(match[0])
		}
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
