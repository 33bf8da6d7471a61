package money

import (
	"strconv"
	"strings"
)

type ErrInvalidAmount string

func (e ErrInvalidAmount) Error() string { return "invalid amount: " + string(e) }

// Normalize turns a raw amount input into an integer cent value. An empty
// input yields the default. Inputs strictly between 0 and 100 are read as a
// major-unit (reais) amount and multiplied by 100; anything else is taken as
// cents already. The fraction is truncated.
//
// The heuristic is ambiguous for whole values in [1,99]: "50" means R$ 50,00
// here, never 50 cents. That is the inherited contract of the checkout form
// and callers wanting cents below R$ 1,00 cannot express them.
func Normalize(defaultCents int, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultCents, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ErrInvalidAmount(raw)
	}
	if v > 0 && v < 100 {
		v *= 100
	}
	cents := int(v)
	if cents <= 0 {
		return 0, ErrInvalidAmount(raw)
	}
	return cents, nil
}
