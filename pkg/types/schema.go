package types

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// InputHandler converts a raw item value into its canonical form.
type InputHandler func(v any) (any, error)

// CodeHandler converts a canonical item value into the value written to a
// declarative unit. Loading that value back through the InputHandler must
// yield an equal canonical value.
type CodeHandler func(v any) (any, error)

// OutputHandler renders a canonical item value as BibTeX field text.
type OutputHandler func(v any) (string, error)

// Rule governs one item: the value classes it accepts and its three
// handlers. A nil handler leaves values unchanged.
type Rule struct {
	Allowed []string
	Input   InputHandler
	Code    CodeHandler
	Output  OutputHandler
}

// Accepts reports whether v belongs to one of the allowed value classes.
func (r Rule) Accepts(v any) bool {
	return slices.Contains(r.Allowed, ValueTypeOf(v))
}

func (r Rule) input(v any) (any, error) {
	if r.Input == nil {
		return v, nil
	}
	return r.Input(v)
}

func (r Rule) code(v any) (any, error) {
	if r.Code == nil {
		return v, nil
	}
	return r.Code(v)
}

func (r Rule) output(v any) (string, error) {
	if r.Output == nil {
		return formatValue(v), nil
	}
	return r.Output(v)
}

// ItemRule binds a Rule to an item name.
type ItemRule struct {
	Name string
	Rule Rule
}

// Kind names an entry category, such as "article".
type Kind string

// Schema is the rule table of one entry kind.
type Schema struct {
	Kind      Kind
	Tag       string // BibTeX category, without the @.
	Mandatory []ItemRule
	Optional  []ItemRule
	Default   Rule
	// AnyOf lists groups of optional items of which at least one must be
	// present.
	AnyOf [][]string
	// Export, when set, rewrites an entry before BibTeX rendering.
	Export func(e *Entry) (*Entry, error)
	// Cite renders the plain-text citation body.
	Cite func(e *Entry, st textStyle) string
}

// Rules returns the rule governing the named item: the mandatory rule, the
// optional rule, the shared rule of a well-known name such as month or
// author, or the default rule, in that order.
func (s *Schema) Rules(name string) Rule {
	if r, ok := findRule(s.Mandatory, name); ok {
		return r
	}
	if r, ok := findRule(s.Optional, name); ok {
		return r
	}
	if r, ok := fieldRules[name]; ok {
		return r
	}
	return s.Default
}

// Classify reports whether the named item is mandatory or optional.
func (s *Schema) Classify(name string) (mandatory, optional bool) {
	_, mandatory = findRule(s.Mandatory, name)
	_, optional = findRule(s.Optional, name)
	return mandatory, optional
}

func findRule(rules []ItemRule, name string) (Rule, bool) {
	for _, ir := range rules {
		if ir.Name == name {
			return ir.Rule, true
		}
	}
	return Rule{}, false
}

// registry maps each kind to its schema. It is filled once by kinds.go.
var registry = map[Kind]*Schema{}

// register adds a schema to the registry. Kinds are registered once at
// package initialization; a duplicate is a programming error.
func register(s *Schema) {
	if _, ok := registry[s.Kind]; ok {
		panic(fmt.Sprintf("types: kind %q registered twice", s.Kind))
	}
	registry[s.Kind] = s
}

// LookupSchema returns the schema of a kind, or ErrUnknownKind.
func LookupSchema(kind Kind) (*Schema, error) {
	s, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s, nil
}

// Kinds returns every registered kind in name order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// KindForTag returns the kind whose schema renders the given BibTeX category,
// ignoring case. Kinds that export through another kind are not returned.
func KindForTag(tag string) (Kind, bool) {
	for _, k := range Kinds() {
		s := registry[k]
		if s.Export == nil && strings.EqualFold(s.Tag, tag) {
			return k, true
		}
	}
	return "", false
}
