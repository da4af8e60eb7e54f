// internal/sortorder/sortorder_test.go
//
// Unit-tests for the normalization policy.
//
// Run: go test ./internal/sortorder -v

package sortorder

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	cases := []any{
		nil,
		"",
		"   ",
		"abc",
		true,
		[]any{1, 2},
		map[string]any{"x": 1},
		math.NaN(),
		math.Inf(1),
		math.Inf(-1),
	}
	for _, c := range cases {
		if got := Normalize(c); got != Default {
			t.Errorf("Normalize(%#v) = %d, want %d", c, got, Default)
		}
	}
}

func TestNormalizeNumbers(t *testing.T) {
	cases := []struct {
		in   any
		want int32
	}{
		{float64(3), 3},
		{float64(3.4), 3},
		{float64(3.5), 4},
		{float64(-3.5), -4}, // math.Round is away from zero
		{"42", 42},
		{" -7 ", -7},
		{"1e3", 1000},
		{json.Number("12.6"), 13},
		{int(0), 0},
		{int64(-1), -1},
		{float64(5e12), math.MaxInt32},
		{float64(-5e12), math.MinInt32},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%#v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	cases := []any{nil, "", "abc", "42", float64(3.5), float64(5e12), json.Number("-8")}
	for _, c := range cases {
		once := Normalize(c)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %#v: %d then %d", c, once, twice)
		}
	}
}
