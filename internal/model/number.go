package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a numeric invoice field. It keeps the text it was set from, so an
// in-progress edit such as "" or "12." is stored unchanged, while Decimal always
// yields a finite value (zero for anything that does not parse).
type Number struct {
	raw string
}

// NumberOf returns the canonical Number for d.
func NumberOf(d decimal.Decimal) Number {
	return Number{raw: d.String()}
}

// NumberFromFloat returns the canonical Number for f. NaN and ±Inf become empty.
func NumberFromFloat(f float64) Number {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}
	}
	return Number{raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

// ParseNumber keeps s as entered.
func ParseNumber(s string) Number {
	return Number{raw: s}
}

// Raw returns the stored text.
func (n Number) Raw() string { return n.raw }

// Valid reports whether the stored text is a finite number.
func (n Number) Valid() bool {
	_, ok := parseDecimal(n.raw)
	return ok
}

// Decimal returns the coerced value, 0 when the text is empty or non-numeric.
func (n Number) Decimal() decimal.Decimal {
	d, ok := parseDecimal(n.raw)
	if !ok {
		return decimal.Zero
	}
	return d
}

// Float64 is Decimal as a float, for layout code that needs one.
func (n Number) Float64() float64 {
	f, _ := n.Decimal().Float64()
	return f
}

// Coerce returns the canonical form of n: the parsed value, or "0".
func (n Number) Coerce() Number {
	return NumberOf(n.Decimal())
}

func (n Number) String() string { return n.raw }

// MarshalJSON writes a JSON number when the text parses and the raw text as a
// JSON string otherwise.
func (n Number) MarshalJSON() ([]byte, error) {
	if d, ok := parseDecimal(n.raw); ok {
		return []byte(d.String()), nil
	}
	return json.Marshal(n.raw)
}

// UnmarshalJSON never fails: numbers and strings are kept as text, null and
// any other JSON value become empty.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		n.raw = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			n.raw = ""
			return nil
		}
		n.raw = s
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		n.raw = string(data)
	default:
		n.raw = ""
	}
	return nil
}

// Decimal digits before the point of the largest and smallest finite float64.
const (
	maxMagnitude = 309
	minMagnitude = -323
)

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if d.IsZero() {
		return decimal.Zero, true
	}
	// Expanding an extreme exponent to text costs time proportional to the
	// exponent, so magnitudes outside float64 range are settled here:
	// overflow is not a number, underflow is zero.
	magnitude := int64(d.NumDigits()) + int64(d.Exponent())
	switch {
	case magnitude > maxMagnitude:
		return decimal.Zero, false
	case magnitude == maxMagnitude:
		if f, _ := d.Float64(); math.IsInf(f, 0) {
			return decimal.Zero, false
		}
	case magnitude < minMagnitude:
		return decimal.Zero, true
	}
	return d, true
}
