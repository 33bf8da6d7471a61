package money

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 5940},
		{"2000", 2000},
		{"20.00", 2000},
		{"59.40", 5940},
		{"99.99", 9999},
		{"100", 100},
		{"138.45", 138},
		{"  2000 ", 2000},
	}
	for _, c := range cases {
		got, err := Normalize(5940, c.raw)
		if err != nil {
			t.Errorf("Normalize(5940, %q) error: %v", c.raw, err)
			continue
		}
		if got != c.want {
			t.Errorf("Normalize(5940, %q) = %d, want %d", c.raw, got, c.want)
		}
	}
}

func TestNormalizeInvalid(t *testing.T) {
	for _, raw := range []string{"0", "-5", "-0.01", "abc", "12,34"} {
		_, err := Normalize(5940, raw)
		var invalid ErrInvalidAmount
		if !errors.As(err, &invalid) {
			t.Errorf("Normalize(5940, %q) error = %v, want ErrInvalidAmount", raw, err)
		}
	}
}
