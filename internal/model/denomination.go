package model

import "fmt"

// Denomination is one of the six canonical voucher face values. The string
// form ("15" .. "200") is the external contract shared with the legacy store.
type Denomination int

const (
	Denom15  Denomination = 15
	Denom30  Denomination = 30
	Denom40  Denomination = 40
	Denom50  Denomination = 50
	Denom100 Denomination = 100
	Denom200 Denomination = 200
)

// denominations lists the canonical set in ascending order. Availability
// reporting iterates this slice so every key always appears in the result.
var denominations = []Denomination{Denom15, Denom30, Denom40, Denom50, Denom100, Denom200}

// Denominations returns the canonical denomination set in ascending order.
func Denominations() []Denomination {
	out := make([]Denomination, len(denominations))
	copy(out, denominations)
	return out
}

// String returns the legacy string form, e.g. "50".
func (d Denomination) String() string {
	return fmt.Sprintf("%d", int(d))
}

// Valid reports whether d belongs to the canonical set.
func (d Denomination) Valid() bool {
	for _, known := range denominations {
		if d == known {
			return true
		}
	}
	return false
}

// ParseDenomination converts the legacy string form back to a Denomination.
// It rejects any value outside the canonical set so malformed denominations
// never reach the ledger or the reservation flow.
func ParseDenomination(s string) (Denomination, error) {
	for _, d := range denominations {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown denomination %q", s)
}
