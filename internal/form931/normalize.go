package form931

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NumberFormat describes the separator convention ParseNumber detected
type NumberFormat int

const (
	FormatEmpty        NumberFormat = iota // no digits at all
	FormatInteger                          // 1234
	FormatCommaDecimal                     // 649,20
	FormatMixed                            // 1.234,56 or 1,234.56
	FormatDotDecimal                       // 649.20 (ambiguous)
	FormatGrouped                          // 1.234.567 or 1,234,567
)

// String returns a string representation of the NumberFormat
func (f NumberFormat) String() string {
	switch f {
	case FormatInteger:
		return "integer"
	case FormatCommaDecimal:
		return "comma_decimal"
	case FormatMixed:
		return "mixed"
	case FormatDotDecimal:
		return "dot_decimal"
	case FormatGrouped:
		return "grouped"
	default:
		return "empty"
	}
}

// Ambiguous reports whether the separator role could not be decided from the
// token alone. A lone period may be a thousands separator or a decimal point;
// it is read as a decimal point.
func (f NumberFormat) Ambiguous() bool {
	return f == FormatDotDecimal
}

// Normalize converts locale-formatted currency or number text to an exact
// decimal. It never fails: empty or unparseable input yields decimal.Zero.
func Normalize(raw string) decimal.Decimal {
	d, _ := ParseNumber(raw)
	return d
}

// ParseNumber is Normalize plus the detected NumberFormat.
//
// Only digits, ',', '.' and '-' are considered. When both separators occur the
// rightmost one is the decimal mark and the others are grouping. A single ','
// or a single '.' is the decimal mark. A separator repeated with no other
// separator present is grouping. Trailing separators are dropped. A minus
// sign counts only before the first digit.
func ParseNumber(raw string) (decimal.Decimal, NumberFormat) {
	kept := make([]byte, 0, len(raw))
	negative := false
	seenDigit := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
			kept = append(kept, c)
		case c == ',' || c == '.':
			kept = append(kept, c)
		case c == '-':
			if !seenDigit {
				negative = true
			}
		}
	}

	if !seenDigit {
		return decimal.Zero, FormatEmpty
	}

	s := strings.TrimRight(string(kept), ",.")
	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	mark := -1
	var format NumberFormat
	switch {
	case commas > 0 && dots > 0:
		mark = max(strings.LastIndexByte(s, ','), strings.LastIndexByte(s, '.'))
		format = FormatMixed
	case commas == 1:
		mark = strings.IndexByte(s, ',')
		format = FormatCommaDecimal
	case dots == 1:
		mark = strings.IndexByte(s, '.')
		format = FormatDotDecimal
	case commas > 1 || dots > 1:
		format = FormatGrouped
	default:
		format = FormatInteger
	}

	intPart, fracPart := s, ""
	if mark >= 0 {
		intPart, fracPart = s[:mark], s[mark+1:]
	}
	intPart = digitsOnly(intPart)
	fracPart = digitsOnly(fracPart)
	if intPart == "" {
		intPart = "0"
	}

	literal := intPart
	if fracPart != "" {
		literal += "." + fracPart
	}

	d, err := decimal.NewFromString(literal)
	if err != nil {
		return decimal.Zero, FormatEmpty
	}
	if negative {
		d = d.Neg()
	}
	return d, format
}

// ParseCount reads a whole-number quantity such as a headcount. A lone
// separator followed by exactly three digits is grouping (1.234 is 1234); any
// other fractional part is truncated. ambiguous reports either guess.
func ParseCount(raw string) (n int64, ambiguous bool) {
	d, format := ParseNumber(raw)
	d = d.Abs()

	lone := format == FormatDotDecimal || format == FormatCommaDecimal
	switch {
	case lone && d.Exponent() == -3:
		return d.Shift(3).IntPart(), true
	case !d.Equal(d.Truncate(0)):
		return d.IntPart(), true
	}
	return d.IntPart(), false
}

// digitsOnly drops every byte that is not an ASCII digit
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
