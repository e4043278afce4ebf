package editor

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DecimalSeparator returns the decimal mark used by tag, e.g. ',' for de-DE.
func DecimalSeparator(tag language.Tag) rune {
	s := message.NewPrinter(tag).Sprint(number.Decimal(1.5))
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return r
		}
	}
	return '.'
}

// FilterAmount keeps ASCII digits and the first occurrence of sep.
func FilterAmount(s string, sep rune) string {
	var b strings.Builder
	seen := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == sep && !seen:
			seen = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseAmount reads a filtered amount string.
func ParseAmount(s string, sep rune) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, string(sep), "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// FormatAmount renders v with at most three decimals using sep.
func FormatAmount(v float64, sep rune) string {
	s := strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
	if sep != '.' {
		s = strings.ReplaceAll(s, ".", string(sep))
	}
	return s
}
