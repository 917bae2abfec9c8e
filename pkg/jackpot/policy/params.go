package policy

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// params wraps a parsed JSON parameter blob with the "missing/blank/unparseable
// yields absent, never an error" semantics the formulas rely on.
type params struct {
	raw map[string]interface{}
}

// parseParams parses a config blob. A blank or unparseable blob yields a nil
// raw map (every field lookup then reports absent) rather than an error.
func parseParams(blob string) params {
	if isBlank(blob) {
		return params{}
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return params{}
	}
	return params{raw: raw}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// decimalField reads a numeric field that may be encoded as either a JSON
// number or a JSON string; a missing field, a blank string, or a value that
// fails to parse all report absent via the second return value.
func (p params) decimalField(name string) (decimal.Decimal, bool) {
	if p.raw == nil {
		return decimal.Zero, false
	}
	v, ok := p.raw[name]
	if !ok || v == nil {
		return decimal.Zero, false
	}
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		if isBlank(t) {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// intField reads an integer-valued field with the same absence semantics as
// decimalField, defaulting scale-like fields to def when absent.
func (p params) intField(name string, def int32) int32 {
	d, ok := p.decimalField(name)
	if !ok {
		return def
	}
	return int32(d.IntPart())
}

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
)

// clampPercent clamps v into [0, 100].
func clampPercent(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(zero) {
		return zero
	}
	if v.GreaterThan(hundred) {
		return hundred
	}
	return v
}

// clampNonNegative clamps v into [0, +inf).
func clampNonNegative(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(zero) {
		return zero
	}
	return v
}

// roundHalfUp rounds v to scale decimal places using round-half-up, the
// rounding mode this module's monetary arithmetic uses everywhere.
func roundHalfUp(v decimal.Decimal, scale int32) decimal.Decimal {
	return v.Round(scale)
}
