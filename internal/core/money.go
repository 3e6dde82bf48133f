// Package core holds the domain model: transactions, categories, money
// and the aggregations the views are built from.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in cents. Calculations stay in cents to avoid
// floating-point drift; Units is for display only.
type Money struct {
	Cents int64 `json:"cents"`
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the whole-currency value as a float64 for display.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// ParseDecimalToCents converts a decimal string to cents. Both dot and
// comma decimal separators are accepted; the third decimal place is
// rounded half-up. Only strictly positive amounts are valid.
//
//	ParseDecimalToCents("12.34") -> 1234
//	ParseDecimalToCents("12,346") -> 1235
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
		if strings.ContainsRune(fracPart, '.') {
			return 0, ErrInvalidAmount
		}
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxBeforeCents = (1<<63 - 1) / 100
	if iv > maxBeforeCents {
		return 0, ErrInvalidAmount
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
	}
	if len(fracPart) > 1 {
		frac += int64(fracPart[1] - '0')
	}
	if len(fracPart) > 2 && fracPart[2] >= '5' {
		frac++
	}

	cents := iv*100 + frac
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// FormatCentsDecimal renders cents as a plain decimal string suitable
// for form inputs, the inverse of ParseDecimalToCents. Whole amounts
// omit the fraction.
func FormatCentsDecimal(cents int64) string {
	units := cents / 100
	rem := cents % 100
	if rem < 0 {
		rem = -rem
	}
	if rem == 0 {
		return strconv.FormatInt(units, 10)
	}
	frac := strconv.FormatInt(rem, 10)
	if rem < 10 {
		frac = "0" + frac
	}
	return strconv.FormatInt(units, 10) + "." + frac
}
