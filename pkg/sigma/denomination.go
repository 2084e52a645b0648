package sigma

import (
	"fmt"
	"strconv"
	"strings"
)

// CoinUnit is the number of the smallest indivisible units in one coin.
const CoinUnit = 100000000

// Denomination is the face value of a sigma coin. Only the values declared
// below are valid, every denomination is tracked independently.
type Denomination uint8

// Recognized denominations, the numeric value is the face value in coins.
const (
	Lovelace   Denomination = 1
	Goldwasser Denomination = 10
	Rackoff    Denomination = 25
	Pedersen   Denomination = 50
	Williamson Denomination = 100
)

var denominationNames = map[Denomination]string{
	Lovelace:   "lovelace",
	Goldwasser: "goldwasser",
	Rackoff:    "rackoff",
	Pedersen:   "pedersen",
	Williamson: "williamson",
}

// Denominations returns all recognized denominations in ascending order.
func Denominations() []Denomination {
	return []Denomination{Lovelace, Goldwasser, Rackoff, Pedersen, Williamson}
}

// IsValid tells whether d is one of the recognized denominations.
func (d Denomination) IsValid() bool {
	_, ok := denominationNames[d]
	return ok
}

// Value returns the face value of d in the smallest units.
func (d Denomination) Value() int64 {
	return int64(d) * CoinUnit
}

// String implements the fmt.Stringer interface.
func (d Denomination) String() string {
	if name, ok := denominationNames[d]; ok {
		return name
	}
	return "denomination(" + strconv.Itoa(int(d)) + ")"
}

// ParseDenomination parses denomination either by its name (case-insensitive)
// or by its face value in coins.
func ParseDenomination(s string) (Denomination, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d, n := range denominationNames {
		if n == name {
			return d, nil
		}
	}
	v, err := strconv.ParseUint(name, 10, 8)
	if err == nil && Denomination(v).IsValid() {
		return Denomination(v), nil
	}
	return 0, fmt.Errorf("unknown denomination %q", s)
}

// MarshalYAML implements the yaml.Marshaler interface.
func (d Denomination) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (d *Denomination) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseDenomination(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
