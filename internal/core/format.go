package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type currencyStyle struct {
	symbol    string
	thousands string
	decimal   string
	spaced    bool
}

var currencyStyles = map[string]currencyStyle{
	"BRL": {symbol: "R$", thousands: ".", decimal: ",", spaced: true},
	"EUR": {symbol: "€", thousands: ".", decimal: ","},
	"USD": {symbol: "$", thousands: ",", decimal: "."},
	"GBP": {symbol: "£", thousands: ",", decimal: "."},
}

// FormatCurrency renders m in the conventions of the given ISO currency code.
// Unknown codes fall back to "<CODE> 1,234.56".
func FormatCurrency(m Money, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	style, ok := currencyStyles[code]
	if !ok {
		style = currencyStyle{symbol: code, thousands: ",", decimal: ".", spaced: true}
	}

	amount := decimal.New(m.Cents, -2)
	neg := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString(style.symbol)
	if style.spaced {
		b.WriteString(" ")
	}
	b.WriteString(groupThousands(intPart, style.thousands))
	b.WriteString(style.decimal)
	b.WriteString(fracPart)
	return b.String()
}

func groupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseCurrency reads an amount as printed by FormatCurrency, or typed by a user,
// back into cents. Symbols and spaces are ignored. The last '.' or ',' is taken
// as the decimal separator unless it is followed by exactly three digits.
func ParseCurrency(s string) (Money, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-")

	var cleaned strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			cleaned.WriteRune(r)
		}
	}
	raw := cleaned.String()
	if raw == "" || strings.Trim(raw, ".,") == "" {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	normalized := raw
	if idx := strings.LastIndexAny(raw, ".,"); idx >= 0 {
		intPart := strings.NewReplacer(".", "", ",", "").Replace(raw[:idx])
		frac := raw[idx+1:]
		if len(frac) == 3 && otherSeparatorAbsent(raw, idx) {
			normalized = intPart + frac
		} else {
			normalized = intPart + "." + frac
		}
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.NewFromInt(1<<62)) {
		return Money{}, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	v := cents.IntPart()
	if neg {
		v = -v
	}
	return Money{Cents: v}, nil
}

// otherSeparatorAbsent reports whether raw[:idx] only uses the same separator
// as raw[idx], i.e. "1.234" or "1.234.567" are grouping, "1,234.567" is not.
func otherSeparatorAbsent(raw string, idx int) bool {
	other := ","
	if raw[idx] == ',' {
		other = "."
	}
	return !strings.Contains(raw[:idx], other)
}

// FormatDate renders a date as DD/MM/YYYY.
func FormatDate(d Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("02/01/2006")
}

// FormatRelativeDay labels d relative to today: "hoje", "amanhã", "ontem",
// otherwise the formatted date.
func FormatRelativeDay(d, today Date) string {
	switch {
	case d.Equal(today):
		return "hoje"
	case d.Equal(today.AddDays(1)):
		return "amanhã"
	case d.Equal(today.AddDays(-1)):
		return "ontem"
	default:
		return FormatDate(d)
	}
}

// FormatTimestamp renders t in loc as DD/MM/YYYY HH:MM.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("02/01/2006 15:04")
}
