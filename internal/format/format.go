// Package format implements the es-AR presentation contract used across
// exports, reports and email bodies: thousands separated by periods,
// decimals by a comma, dates masked as DD/MM/YYYY.
package format

import (
	"strconv"
	"strings"
)

// Number renders v with two decimals in es-AR notation, e.g. 1234.5 -> "1.234,50".
func Number(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(ch)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// Currency renders v as Argentine pesos, e.g. 1234.5 -> "$ 1.234,50".
func Currency(v float64) string {
	return "$ " + Number(v)
}

// ParseCurrency reads a value produced by Currency or Number back into a
// float. Currency symbols, spaces and thousands periods are stripped and the
// decimal comma becomes a point. Empty or unreadable input yields zero.
func ParseCurrency(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseAmount converts free-typed item amounts. It reads the longest leading
// run that forms a plain decimal number (optional sign, digits, one point)
// and ignores whatever follows, so "12.5abc" is 12.5. Input with no leading
// number at all yields zero.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	tok := strings.TrimSuffix(s[:i], ".")
	if tok == "" || tok == "+" || tok == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0
	}
	return v
}

// MaskDate normalizes a typed date toward DD/MM/YYYY: everything that is
// not a digit is dropped, at most eight digits are kept, and separators are
// inserted after the day and month as soon as those parts are complete.
// Partial input stays partial, "1503" masks to "15/03".
func MaskDate(s string) string {
	var digits []byte
	for i := 0; i < len(s) && len(digits) < 8; i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits = append(digits, s[i])
		}
	}
	var b strings.Builder
	for i, d := range digits {
		if i == 2 || i == 4 {
			b.WriteByte('/')
		}
		b.WriteByte(d)
	}
	return b.String()
}

// TruncateLabel shortens chart labels to max runes, appending an ellipsis
// when anything was cut.
func TruncateLabel(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
