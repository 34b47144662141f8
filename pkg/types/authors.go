package types

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// AuthorList is an ordered list of authors, each an ordered list of name
// parts with the surname last. FullFirst and FullOther control whether the
// first and middle name parts render in full or as initials; surnames always
// render in full.
type AuthorList struct {
	Names     [][]string
	FullFirst bool
	FullOther bool
}

// AuthorQuery selects authors in AuthorList.Find. Empty fields match
// anything; all set fields must match the same author exactly.
type AuthorQuery struct {
	Last  string
	First string
	Other string
	Any   string
}

// ParseAuthors builds an AuthorList from any of the accepted shapes:
//
//   - a string of authors separated by the word "and", name parts split on
//     whitespace outside {...}, "..." and '...' groups;
//   - a []string, each element parsed as above and concatenated;
//   - a [][]string of explicit name parts;
//   - another AuthorList, which is copied;
//   - the mapping form {names: [[...]], fullfirst: bool, fullother: bool}.
//
// Both display flags default to true. Malformed input returns
// ErrInvalidAuthors.
func ParseAuthors(v any) (AuthorList, error) {
	al := AuthorList{FullFirst: true, FullOther: true}
	switch x := v.(type) {
	case string:
		names, err := splitAuthors(x)
		if err != nil {
			return AuthorList{}, err
		}
		al.Names = names
	case []string:
		for _, s := range x {
			names, err := splitAuthors(s)
			if err != nil {
				return AuthorList{}, err
			}
			al.Names = append(al.Names, names...)
		}
	case [][]string:
		for _, parts := range x {
			if len(parts) == 0 {
				return AuthorList{}, fmt.Errorf("%w: empty author", ErrInvalidAuthors)
			}
			al.Names = append(al.Names, append([]string(nil), parts...))
		}
	case AuthorList:
		return x.Clone(), nil
	case *AuthorList:
		if x == nil {
			return AuthorList{}, fmt.Errorf("%w: nil author list", ErrInvalidAuthors)
		}
		return x.Clone(), nil
	case map[string]any:
		return authorsFromMapping(x)
	default:
		return AuthorList{}, fmt.Errorf("%w: cannot build an author list from %T", ErrInvalidAuthors, v)
	}
	if len(al.Names) == 0 {
		return AuthorList{}, fmt.Errorf("%w: no authors", ErrInvalidAuthors)
	}
	return al, nil
}

// MustAuthors is ParseAuthors for literals known to be valid. It panics on
// error.
func MustAuthors(v any) AuthorList {
	al, err := ParseAuthors(v)
	if err != nil {
		panic(err)
	}
	return al
}

func authorsFromMapping(m map[string]any) (AuthorList, error) {
	raw, ok := m["names"]
	if !ok {
		return AuthorList{}, fmt.Errorf("%w: mapping has no names key", ErrInvalidAuthors)
	}
	al, err := ParseAuthors(raw)
	if err != nil {
		return AuthorList{}, err
	}
	for key, dst := range map[string]*bool{"fullfirst": &al.FullFirst, "fullother": &al.FullOther} {
		flag, ok := m[key]
		if !ok {
			continue
		}
		b, ok := flag.(bool)
		if !ok {
			return AuthorList{}, fmt.Errorf("%w: %s must be a boolean", ErrInvalidAuthors, key)
		}
		*dst = b
	}
	return al, nil
}

// splitAuthors scans a BibTeX style author string. Whitespace separates name
// parts unless it sits inside a brace group, a double-quoted group, or a
// single-quoted group opened at the start of a part. The bare word "and"
// separates authors. Escape characters are kept verbatim.
func splitAuthors(raw string) ([][]string, error) {
	var (
		authors [][]string
		current []string
		part    strings.Builder
		braces  int
		dquote  bool
		squote  bool
	)
	flush := func() error {
		if part.Len() == 0 {
			return nil
		}
		text := part.String()
		part.Reset()
		if text == "and" {
			if len(current) == 0 {
				return fmt.Errorf("%w: leading or repeated \"and\" in %q", ErrInvalidAuthors, raw)
			}
			authors = append(authors, current)
			current = nil
			return nil
		}
		current = append(current, text)
		return nil
	}

	for _, r := range raw {
		grouped := braces > 0 || dquote || squote
		switch {
		case unicode.IsSpace(r) && !grouped:
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		case r == '{' && !dquote && !squote:
			braces++
		case r == '}' && !dquote && !squote:
			braces--
			if braces < 0 {
				return nil, fmt.Errorf("%w: unmatched } in %q", ErrInvalidAuthors, raw)
			}
		case r == '"' && braces == 0 && !squote:
			dquote = !dquote
		case r == '\'' && braces == 0 && !dquote:
			if squote || part.Len() == 0 {
				squote = !squote
			}
		}
		part.WriteRune(r)
	}
	if braces > 0 || dquote || squote {
		return nil, fmt.Errorf("%w: unterminated group in %q", ErrInvalidAuthors, raw)
	}
	if part.String() == "and" {
		return nil, fmt.Errorf("%w: trailing \"and\" in %q", ErrInvalidAuthors, raw)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(current) == 0 {
		if len(authors) > 0 {
			return nil, fmt.Errorf("%w: trailing \"and\" in %q", ErrInvalidAuthors, raw)
		}
		return nil, nil
	}
	return append(authors, current), nil
}

// Clone returns a deep copy.
func (al AuthorList) Clone() AuthorList {
	out := AuthorList{FullFirst: al.FullFirst, FullOther: al.FullOther}
	out.Names = make([][]string, len(al.Names))
	for i, parts := range al.Names {
		out.Names[i] = append([]string(nil), parts...)
	}
	return out
}

// Len returns the number of authors.
func (al AuthorList) Len() int {
	return len(al.Names)
}

// String returns the BibTeX form: authors joined by " and ", abbreviated
// according to the display flags.
func (al AuthorList) String() string {
	return al.join(" and ")
}

// Show returns the display form: authors joined by ", ", abbreviated
// according to the display flags.
func (al AuthorList) Show() string {
	return al.join(", ")
}

// GoString reconstructs the value.
func (al AuthorList) GoString() string {
	return fmt.Sprintf("AuthorList(%q, fullfirst=%t, fullother=%t)", al.Names, al.FullFirst, al.FullOther)
}

func (al AuthorList) join(sep string) string {
	rendered := make([]string, 0, len(al.Names))
	for _, parts := range al.Names {
		rendered = append(rendered, al.renderAuthor(parts))
	}
	return strings.Join(rendered, sep)
}

func (al AuthorList) renderAuthor(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	out := make([]string, 0, len(parts))
	last := len(parts) - 1
	for i, part := range parts[:last] {
		full := al.FullOther
		if i == 0 {
			full = al.FullFirst
		}
		if full {
			out = append(out, part)
			continue
		}
		if ini := initial(part); ini != "" {
			out = append(out, ini+".")
		} else {
			out = append(out, part)
		}
	}
	return strings.Join(append(out, parts[last]), " ")
}

// Code returns the form written to declarative units: the bare name lists
// when both flags are at their defaults, otherwise a mapping that records
// the flags.
func (al AuthorList) Code() any {
	names := al.Clone().Names
	if al.FullFirst && al.FullOther {
		return names
	}
	return map[string]any{
		"names":     names,
		"fullfirst": al.FullFirst,
		"fullother": al.FullOther,
	}
}

// Equivalent reports whether two lists name the same people: same length,
// same surname fingerprints, and the same first initials wherever both
// authors have a first name.
func (al AuthorList) Equivalent(o AuthorList) bool {
	if len(al.Names) != len(o.Names) {
		return false
	}
	return al.Compare(o) == 0
}

// Compare orders author lists by surname fingerprint, then first initial,
// author by author, then by length.
func (al AuthorList) Compare(o AuthorList) int {
	for i := 0; i < len(al.Names) && i < len(o.Names); i++ {
		a, b := al.Names[i], o.Names[i]
		if c := strings.Compare(fingerprint(a[len(a)-1]), fingerprint(b[len(b)-1])); c != 0 {
			return c
		}
		if len(a) > 1 && len(b) > 1 {
			if c := strings.Compare(initial(a[0]), initial(b[0])); c != 0 {
				return c
			}
		}
	}
	switch {
	case len(al.Names) < len(o.Names):
		return -1
	case len(al.Names) > len(o.Names):
		return 1
	}
	return 0
}

// Find returns the index of the first author matching every set field of q,
// or -1. Matching is exact.
func (al AuthorList) Find(q AuthorQuery) int {
	for i, parts := range al.Names {
		if len(parts) == 0 {
			continue
		}
		if q.Last != "" && parts[len(parts)-1] != q.Last {
			continue
		}
		if q.First != "" && (len(parts) < 2 || parts[0] != q.First) {
			continue
		}
		if q.Other != "" && !slices.Contains(middle(parts), q.Other) {
			continue
		}
		if q.Any != "" && !slices.Contains(parts, q.Any) {
			continue
		}
		return i
	}
	return -1
}

// FirstSurname returns the surname of the first author, or "".
func (al AuthorList) FirstSurname() string {
	if len(al.Names) == 0 || len(al.Names[0]) == 0 {
		return ""
	}
	first := al.Names[0]
	return first[len(first)-1]
}

func middle(parts []string) []string {
	if len(parts) < 3 {
		return nil
	}
	return parts[1 : len(parts)-1]
}

// initial returns the first letter of a name part in upper case, skipping
// characters escaped with a backslash.
func initial(part string) string {
	escaped := false
	for _, r := range part {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case unicode.IsLetter(r):
			return string(unicode.ToUpper(r))
		}
	}
	return ""
}

// fingerprint keeps only the letters of s, lower-cased.
func fingerprint(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
