package types

import (
	"fmt"
	"strconv"
	"strings"
)

// monthNames holds the full English month names, January first.
var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Month is a calendar month stored as its number, 1 through 12. Full selects
// the full name instead of the three-letter abbreviation when rendering.
type Month struct {
	Index int
	Full  bool
}

// ParseMonth builds a Month from an integer, a decimal string, a full month
// name, a three-letter abbreviation with an optional trailing period, another
// Month, or the mapping form {month: n, full: bool}. Names are matched
// without regard to case. Anything else returns ErrInvalidMonth.
func ParseMonth(v any) (Month, error) {
	switch x := v.(type) {
	case Month:
		return checkMonth(x)
	case *Month:
		if x == nil {
			return Month{}, fmt.Errorf("%w: nil month", ErrInvalidMonth)
		}
		return checkMonth(*x)
	case int, int64, int32:
		n, _ := toInt(x)
		return monthFromIndex(n)
	case string:
		return monthFromString(x)
	case map[string]any:
		return monthFromMapping(x)
	default:
		return Month{}, fmt.Errorf("%w: cannot build a month from %T", ErrInvalidMonth, v)
	}
}

// MustMonth is ParseMonth for literals known to be valid. It panics on error.
func MustMonth(v any) Month {
	m, err := ParseMonth(v)
	if err != nil {
		panic(err)
	}
	return m
}

func checkMonth(m Month) (Month, error) {
	out, err := monthFromIndex(m.Index)
	if err != nil {
		return Month{}, err
	}
	out.Full = m.Full
	return out, nil
}

func monthFromIndex(n int) (Month, error) {
	if n < 1 || n > 12 {
		return Month{}, fmt.Errorf("%w: %d is out of range", ErrInvalidMonth, n)
	}
	return Month{Index: n}, nil
}

func monthFromString(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return monthFromIndex(n)
	}
	name := strings.ToLower(s)
	for i, full := range monthNames {
		if name == strings.ToLower(full) {
			return Month{Index: i + 1}, nil
		}
	}
	abbr := strings.TrimSuffix(name, ".")
	if len(abbr) == 3 {
		for i, full := range monthNames {
			if abbr == strings.ToLower(full[:3]) {
				return Month{Index: i + 1}, nil
			}
		}
	}
	return Month{}, fmt.Errorf("%w: unrecognized name %q", ErrInvalidMonth, s)
}

func monthFromMapping(m map[string]any) (Month, error) {
	raw, ok := m["month"]
	if !ok {
		return Month{}, fmt.Errorf("%w: mapping has no month key", ErrInvalidMonth)
	}
	month, err := ParseMonth(raw)
	if err != nil {
		return Month{}, err
	}
	if full, ok := m["full"]; ok {
		b, ok := full.(bool)
		if !ok {
			return Month{}, fmt.Errorf("%w: full must be a boolean", ErrInvalidMonth)
		}
		month.Full = b
	}
	return month, nil
}

// String returns the title-cased abbreviation, or the full name when Full
// is set.
func (m Month) String() string {
	if m.Index < 1 || m.Index > 12 {
		return fmt.Sprintf("Month(%d)", m.Index)
	}
	name := monthNames[m.Index-1]
	if m.Full {
		return name
	}
	return name[:3]
}

// Show is the display form. It equals String.
func (m Month) Show() string {
	return m.String()
}

// GoString reconstructs the value.
func (m Month) GoString() string {
	return fmt.Sprintf("Month(%d)", m.Index)
}

// Code returns the form written to declarative units: the bare number, or
// a mapping when Full is set.
func (m Month) Code() any {
	if m.Full {
		return map[string]any{"month": m.Index, "full": true}
	}
	return m.Index
}

// Compare orders months by number.
func (m Month) Compare(o Month) int {
	switch {
	case m.Index < o.Index:
		return -1
	case m.Index > o.Index:
		return 1
	}
	return 0
}
