// internal/sortorder/sortorder.go
//
// Sort-order normalization policy.
//
// Context
// -------
// Ordering values arrive from admin JSON bodies and from bulk imports, so
// they may be absent, null, empty strings, quoted numbers, floats, or
// garbage.  Normalize is the single total function that turns any of those
// into a usable int32.  The sentinel 9999 means "no explicit position; sort
// after anything deliberately ordered."
//
// Notes
// -----
// • Pure and total — no errors, no logging.
// • Oxford commas, two spaces after periods.
package sortorder

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Default is the sentinel for "unordered."
const Default int32 = 9999

// Normalize maps a decoded JSON value onto an int32 sort order.  Missing,
// null, empty, or non-numeric input yields Default; finite numbers are
// rounded to the nearest integer and clamped into the int32 range.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(v any) int32 {
	switch x := v.(type) {
	case nil:
		return Default
	case int32:
		return x
	case int:
		return clamp(float64(x))
	case int64:
		return clamp(float64(x))
	case float64:
		return clamp(x)
	case float32:
		return clamp(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Default
		}
		return clamp(f)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return Default
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Default
		}
		return clamp(f)
	default:
		// Booleans, arrays, objects — no sensible ordering.
		return Default
	}
}

// clamp rounds and pins f into [math.MinInt32, math.MaxInt32].  Non-finite
// values fall back to the sentinel.
func clamp(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Default
	}
	r := math.Round(f)
	if r < math.MinInt32 {
		return math.MinInt32
	}
	if r > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(r)
}
