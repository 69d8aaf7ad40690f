package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents is an exact monetary amount in hundredths of the currency unit.
// All bid comparisons use integer arithmetic so increment thresholds
// never drift the way binary floating point would.
type Cents int64

// ParseCents parses a decimal string such as "20", "20.5" or "20.50"
// into an exact amount. More than two fractional digits is an error.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse amount: empty string")
	}

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("parse amount %q: no digits", s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("parse amount %q: more than two decimal places", s)
	}

	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	var hundredths int64
	if frac != "" {
		hundredths, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse amount %q: %w", s, err)
		}
		if len(frac) == 1 {
			hundredths *= 10
		}
	}

	total := units*100 + hundredths
	if negative {
		total = -total
	}
	return Cents(total), nil
}

// String formats the amount as a decimal string with two places, e.g. "20.50".
func (c Cents) String() string {
	units := int64(c) / 100
	hundredths := int64(c) % 100
	sign := ""
	if c < 0 {
		sign = "-"
		units = -units
		hundredths = -hundredths
	}
	return fmt.Sprintf("%s%d.%02d", sign, units, hundredths)
}

// MarshalJSON encodes the amount as a quoted decimal string so the exact
// value survives JSON transport.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.String())), nil
}

// UnmarshalJSON accepts a quoted decimal string.
func (c *Cents) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("amount must be a decimal string: %w", err)
	}
	parsed, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
