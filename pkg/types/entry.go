package types

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Built-in attribute names. They shadow items of the same name in Get and
// Set; such items are reachable only through Item and SetItem.
const (
	AttrName        = "name"
	AttrKind        = "kind"
	AttrBib         = "bib"
	AttrCollections = "collections"
	AttrDoc         = "doc"
	AttrDocFile     = "docfile"
	AttrSourceFile  = "sourcefile"
)

// builtins is the set of built-in attribute names.
var builtins = map[string]bool{
	AttrName:        true,
	AttrKind:        true,
	AttrBib:         true,
	AttrCollections: true,
	AttrDoc:         true,
	AttrDocFile:     true,
	AttrSourceFile:  true,
}

// IsBuiltin reports whether name is a built-in attribute.
func IsBuiltin(name string) bool {
	return builtins[name]
}

// Entry is one bibliographic record. Items hold the bibliographic data;
// the remaining fields are bookkeeping that never reaches BibTeX output.
type Entry struct {
	Name        string         // Unique identifier (required, non-empty).
	Kind        Kind           // Selects the rule table.
	SourceFile  string         // Unit the entry was loaded from, if any.
	Doc         string         // Free-form notes.
	DocFile     string         // Path to a local copy of the document.
	Collections []string       // Collections the entry nominates itself into.
	Bib         map[string]any // Items keyed by name.
}

// PostOptions configure Entry.Post. The zero value reports every schema
// violation as an error.
type PostOptions struct {
	Lenient bool // Report schema violations as diagnostics and skip the item.
	Verbose bool // Add an informational diagnostic per posted entry.
	Strict  bool // Treat items outside the rule tables as violations.
}

// PostResult lists the items Post processed and its diagnostics.
type PostResult struct {
	Handled     []string
	Diagnostics []Diagnostic
}

// NewEntry creates an entry with no items.
func NewEntry(name string, kind Kind) *Entry {
	return &Entry{Name: name, Kind: kind, Bib: map[string]any{}}
}

// Schema returns the rule table of the entry's kind.
func (e *Entry) Schema() (*Schema, error) {
	return LookupSchema(e.Kind)
}

// Rules returns the rule governing the named item. Entries of an unknown
// kind fall back to a rule that accepts text and integers verbatim.
func (e *Entry) Rules(name string) Rule {
	s, err := e.Schema()
	if err != nil {
		return looseRule
	}
	return s.Rules(name)
}

// Get returns a built-in attribute or an item. Built-ins win over items of
// the same name. Returns ErrMissingItem when neither exists.
func (e *Entry) Get(name string) (any, error) {
	switch name {
	case AttrName:
		return e.Name, nil
	case AttrKind:
		return e.Kind, nil
	case AttrBib:
		return e.Bib, nil
	case AttrCollections:
		return e.Collections, nil
	case AttrDoc:
		return e.Doc, nil
	case AttrDocFile:
		return e.DocFile, nil
	case AttrSourceFile:
		return e.SourceFile, nil
	}
	v, ok := e.Bib[name]
	if !ok {
		return nil, fmt.Errorf("entry %q: %w: %s", e.Name, ErrMissingItem, name)
	}
	return v, nil
}

// Set writes a built-in attribute or an item. Built-in values are checked
// for type; the item map itself cannot be replaced.
func (e *Entry) Set(name string, value any) error {
	switch name {
	case AttrBib:
		return fmt.Errorf("entry %q: %w: bib cannot be replaced", e.Name, ErrPermissionDenied)
	case AttrName:
		s, ok := value.(string)
		if !ok || s == "" {
			return fmt.Errorf("%w: entry name must be a non-empty string", ErrInvalidName)
		}
		e.Name = s
	case AttrKind:
		var k Kind
		switch x := value.(type) {
		case Kind:
			k = x
		case string:
			k = Kind(x)
		default:
			return fmt.Errorf("entry %q: %w: kind must be a string", e.Name, ErrTypeMismatch)
		}
		if _, err := LookupSchema(k); err != nil {
			return err
		}
		e.Kind = k
	case AttrCollections:
		names, err := stringList(value)
		if err != nil {
			return fmt.Errorf("entry %q: collections: %w", e.Name, err)
		}
		e.Collections = names
	case AttrDoc, AttrDocFile, AttrSourceFile:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("entry %q: %w: %s must be a string", e.Name, ErrTypeMismatch, name)
		}
		switch name {
		case AttrDoc:
			e.Doc = s
		case AttrDocFile:
			e.DocFile = s
		default:
			e.SourceFile = s
		}
	default:
		e.SetItem(name, value)
	}
	return nil
}

func stringList(v any) ([]string, error) {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...), nil
	case []any:
		out := make([]string, 0, len(x))
		for _, el := range x {
			s, ok := el.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %T is not a string", ErrTypeMismatch, el)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a list of strings", ErrTypeMismatch, v)
	}
}

// Has reports whether the entry holds the named item. Built-in attributes
// are not items.
func (e *Entry) Has(name string) bool {
	_, ok := e.Bib[name]
	return ok
}

// Item returns the named item, or nil.
func (e *Entry) Item(name string) any {
	return e.Bib[name]
}

// SetItem stores an item directly, bypassing built-in attributes.
func (e *Entry) SetItem(name string, value any) {
	if e.Bib == nil {
		e.Bib = map[string]any{}
	}
	e.Bib[name] = value
}

// DeleteItem removes an item. Returns ErrMissingItem if it is absent.
func (e *Entry) DeleteItem(name string) error {
	if !e.Has(name) {
		return fmt.Errorf("entry %q: %w: %s", e.Name, ErrMissingItem, name)
	}
	delete(e.Bib, name)
	return nil
}

// Nominate adds a collection name to Collections unless already present.
func (e *Entry) Nominate(collection string) {
	if !slices.Contains(e.Collections, collection) {
		e.Collections = append(e.Collections, collection)
	}
}

// Post validates the entry against its rule table and converts every
// recognized item to its canonical form. Mandatory items are checked first,
// then present optional items, then the remaining items under the shared
// rule of their name or the default rule. Handler failures are always
// returned as errors; schema violations are errors unless opts.Lenient is
// set. Running Post on an already posted entry changes nothing.
func (e *Entry) Post(opts PostOptions) (PostResult, error) {
	var res PostResult
	if e.Name == "" {
		return res, fmt.Errorf("%w: entry name must not be empty", ErrInvalidName)
	}
	s, err := e.Schema()
	if err != nil {
		return res, fmt.Errorf("entry %q: %w", e.Name, err)
	}
	if e.Bib == nil {
		e.Bib = map[string]any{}
	}

	violate := func(item, msg string) error {
		if !opts.Lenient {
			return &ItemError{Entry: e.Name, Item: item, Err: fmt.Errorf("%w: %s", ErrSchemaViolation, msg)}
		}
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Source:   e.SourceFile,
			Entry:    e.Name,
			Item:     item,
			Message:  msg,
		})
		return nil
	}
	apply := func(name string, r Rule) error {
		v := e.Bib[name]
		if !r.Accepts(v) {
			return violate(name, fmt.Sprintf("value of type %T is not one of %s", v, strings.Join(r.Allowed, ", ")))
		}
		out, err := r.input(v)
		if err != nil {
			return &ItemError{Entry: e.Name, Item: name, Err: fmt.Errorf("%w: %w", ErrHandlerFailure, err)}
		}
		e.Bib[name] = out
		res.Handled = append(res.Handled, name)
		return nil
	}

	seen := map[string]bool{}
	for _, ir := range s.Mandatory {
		seen[ir.Name] = true
		if !e.Has(ir.Name) {
			if err := violate(ir.Name, "missing mandatory item"); err != nil {
				return res, err
			}
			continue
		}
		if err := apply(ir.Name, ir.Rule); err != nil {
			return res, err
		}
	}
	for _, ir := range s.Optional {
		seen[ir.Name] = true
		if !e.Has(ir.Name) {
			continue
		}
		if err := apply(ir.Name, ir.Rule); err != nil {
			return res, err
		}
	}
	for _, group := range s.AnyOf {
		if !slices.ContainsFunc(group, e.Has) {
			if err := violate(strings.Join(group, "/"), "requires at least one of "+strings.Join(group, ", ")); err != nil {
				return res, err
			}
		}
	}
	for _, name := range e.extraItems(seen) {
		if opts.Strict {
			if err := violate(name, "unrecognized item"); err != nil {
				return res, err
			}
			continue
		}
		if err := apply(name, s.Rules(name)); err != nil {
			return res, err
		}
	}
	if opts.Verbose {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{
			Severity: SeverityInfo,
			Source:   e.SourceFile,
			Entry:    e.Name,
			Message:  fmt.Sprintf("posted %d items as %s", len(res.Handled), e.Kind),
		})
	}
	return res, nil
}

// extraItems returns the names of items outside the given set, sorted.
func (e *Entry) extraItems(known map[string]bool) []string {
	var out []string
	for name := range e.Bib {
		if !known[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// orderedItems returns the present items as rule bindings: mandatory, then
// optional, then the rest in name order under their own rules.
func (e *Entry) orderedItems() ([]ItemRule, error) {
	s, err := e.Schema()
	if err != nil {
		return nil, fmt.Errorf("entry %q: %w", e.Name, err)
	}
	var out []ItemRule
	seen := map[string]bool{}
	for _, list := range [][]ItemRule{s.Mandatory, s.Optional} {
		for _, ir := range list {
			seen[ir.Name] = true
			if e.Has(ir.Name) {
				out = append(out, ir)
			}
		}
	}
	for _, name := range e.extraItems(seen) {
		out = append(out, ItemRule{Name: name, Rule: s.Rules(name)})
	}
	return out, nil
}

// Compare orders entries by name.
func (e *Entry) Compare(o *Entry) int {
	return strings.Compare(e.Name, o.Name)
}

// Less reports whether e sorts before o by name.
func (e *Entry) Less(o *Entry) bool {
	return e.Name < o.Name
}

// Equal reports whether two entries have the same name.
func (e *Entry) Equal(o *Entry) bool {
	return o != nil && e.Name == o.Name
}

// CompareTo compares e with an arbitrary value. Only entries are
// comparable; anything else returns ErrTypeMismatch.
func (e *Entry) CompareTo(v any) (int, error) {
	o, ok := v.(*Entry)
	if !ok || o == nil {
		return 0, fmt.Errorf("%w: cannot compare an entry with %T", ErrTypeMismatch, v)
	}
	return e.Compare(o), nil
}

// date joins the day, month and year items that are present.
func (e *Entry) date() string {
	var parts []string
	for _, name := range []string{"day", "month", "year"} {
		if v, ok := e.Bib[name]; ok {
			if m, ok := v.(Month); ok {
				parts = append(parts, m.Show())
				continue
			}
			parts = append(parts, formatValue(v))
		}
	}
	return strings.Join(parts, " ")
}
