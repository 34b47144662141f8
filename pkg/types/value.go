package types

import (
	"fmt"
	"strconv"
)

// Item value classes. A rule lists the classes it accepts before its input
// handler runs; ValueTypeOf maps a Go value to its class.
const (
	ValueTypeText    = "text"
	ValueTypeInteger = "integer"
	ValueTypeList    = "list"
	ValueTypeMapping = "mapping"
	ValueTypeAuthors = "authors"
	ValueTypeMonth   = "month"
)

// validValueTypes is the set of recognized value classes.
var validValueTypes = map[string]bool{
	ValueTypeText:    true,
	ValueTypeInteger: true,
	ValueTypeList:    true,
	ValueTypeMapping: true,
	ValueTypeAuthors: true,
	ValueTypeMonth:   true,
}

// IsValidValueType reports whether the given string is a recognized value class.
func IsValidValueType(vt string) bool {
	return validValueTypes[vt]
}

// ValueTypeOf returns the class of v, or "" when items cannot hold v.
func ValueTypeOf(v any) string {
	switch v.(type) {
	case string:
		return ValueTypeText
	case int, int64, int32:
		return ValueTypeInteger
	case []string, [][]string:
		return ValueTypeList
	case map[string]any:
		return ValueTypeMapping
	case AuthorList, *AuthorList:
		return ValueTypeAuthors
	case Month, *Month:
		return ValueTypeMonth
	default:
		return ""
	}
}

// toInt converts integers and decimal text to int.
func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case int32:
		return int(x), nil
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", ErrTypeMismatch, v)
	}
}

// formatValue renders an item value the way BibTeX and text output show it.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
