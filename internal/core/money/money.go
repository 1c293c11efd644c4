// package money/money.go
package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedAmount is returned when a numeric substring has more than one
// decimal separator, e.g. "1,234,56".
var ErrMalformedAmount = errors.New("valor monetário malformado")

// numberRegex matches the first run of digits and separators holding at least one digit.
var numberRegex = regexp.MustCompile(`[0-9.,]*[0-9][0-9.,]*`)

// Parse converts a Brazilian-formatted amount ("R$ 1.234,56") to a decimal.
// Dots are thousands separators and the comma is the decimal separator.
// Text without digits yields zero.
func Parse(s string) (decimal.Decimal, error) {
	match := numberRegex.FindString(s)
	if match == "" {
		return decimal.Zero, nil
	}

	num := strings.Trim(match, ".,")
	num = strings.ReplaceAll(num, ".", "")
	if strings.Count(num, ",") > 1 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, match)
	}
	num = strings.Replace(num, ",", ".", 1)

	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, match)
	}
	return d, nil
}

// ParsePercent converts "0,50" or "1.5" to a decimal percentage. Unlike Parse
// it does not treat dots as thousands separators.
func ParsePercent(s string) (decimal.Decimal, error) {
	match := numberRegex.FindString(s)
	if match == "" {
		return decimal.Zero, nil
	}

	num := strings.Trim(match, ".,")
	if strings.Count(num, ",")+strings.Count(num, ".") > 1 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, match)
	}
	num = strings.Replace(num, ",", ".", 1)

	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, match)
	}
	return d, nil
}

// FormatBRL renders an amount as "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + formatBR(d, 2)
}

// FormatPercent renders a percentage as "0,50%".
func FormatPercent(d decimal.Decimal) string {
	return formatBR(d, 2) + "%"
}

func formatBR(d decimal.Decimal, places int32) string {
	fixed := d.Abs().StringFixed(places)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}
