package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnitVersion is the declarative unit format version written by this package.
const UnitVersion = 1

// Unit is one declarative source unit: a YAML document holding collection
// and entry records. Loading a unit never executes anything.
type Unit struct {
	Version     int                `yaml:"shelf,omitempty"`
	Collections []CollectionRecord `yaml:"collections,omitempty"`
	Entries     []EntryRecord      `yaml:"entries,omitempty"`
}

// EntryRecord is the stored form of an Entry. Item values are in code form.
type EntryRecord struct {
	Name        string   `yaml:"name"`
	Type        Kind     `yaml:"type"`
	Collections []string `yaml:"collections,omitempty,flow"`
	Doc         string   `yaml:"doc,omitempty"`
	DocFile     string   `yaml:"docfile,omitempty"`
	Items       Items    `yaml:"items,omitempty"`
}

// CollectionRecord is the stored form of a collection node. Children are
// references: a name when it is unique within the saved graph, otherwise
// the node ID. Collection-kind records join the master directly unless
// Detached is set.
type CollectionRecord struct {
	Name     string         `yaml:"name"`
	ID       string         `yaml:"id,omitempty"`
	Kind     CollectionKind `yaml:"kind,omitempty"`
	Detached bool           `yaml:"detached,omitempty"`
	Doc      string         `yaml:"doc,omitempty"`
	Members  []string       `yaml:"members,omitempty,flow"`
	Children []string       `yaml:"children,omitempty,flow"`
}

// ItemValue is one named item value.
type ItemValue struct {
	Name  string
	Value any
}

// Items is an ordered item mapping.
type Items []ItemValue

// Get returns the value of the named item.
func (it Items) Get(name string) (any, bool) {
	for _, iv := range it {
		if iv.Name == name {
			return iv.Value, true
		}
	}
	return nil, false
}

// MarshalYAML writes the items as a mapping in order. Name lists are written
// in flow style.
func (it Items) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, iv := range it {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: iv.Name}
		val := &yaml.Node{}
		if err := val.Encode(iv.Value); err != nil {
			return nil, fmt.Errorf("item %q: %w", iv.Name, err)
		}
		flowLists(val)
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// flowLists switches every sequence below n to flow style.
func flowLists(n *yaml.Node) {
	if n.Kind == yaml.SequenceNode {
		n.Style = yaml.FlowStyle
	}
	for _, c := range n.Content {
		flowLists(c)
	}
}

// UnmarshalYAML reads an item mapping, keeping document order and
// converting values with DecodeValue.
func (it *Items) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: items must be a mapping (line %d)", ErrInvalidUnit, node.Line)
	}
	out := make(Items, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		v, err := DecodeValue(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("item %q: %w", name, err)
		}
		out = append(out, ItemValue{Name: name, Value: v})
	}
	*it = out
	return nil
}

// DecodeValue converts a YAML node into a raw item value: string, int,
// bool, []string, [][]string, or map[string]any of those. Other scalars
// keep their Go decoding and are rejected later by the rule checks.
func DecodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return DecodeValue(n.Alias)
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return n.Value, nil
		case "!!int":
			var i int
			if err := n.Decode(&i); err != nil {
				return nil, err
			}
			return i, nil
		case "!!null":
			return nil, nil
		default:
			var v any
			if err := n.Decode(&v); err != nil {
				return nil, err
			}
			return v, nil
		}
	case yaml.SequenceNode:
		return decodeSequence(n)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := DecodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unsupported value at line %d", ErrInvalidUnit, n.Line)
}

func decodeSequence(n *yaml.Node) (any, error) {
	if len(n.Content) > 0 && n.Content[0].Kind == yaml.SequenceNode {
		out := make([][]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("%w: mixed list at line %d", ErrInvalidUnit, c.Line)
			}
			parts, err := scalarStrings(c)
			if err != nil {
				return nil, err
			}
			out = append(out, parts)
		}
		return out, nil
	}
	return scalarStrings(n)
}

func scalarStrings(n *yaml.Node) ([]string, error) {
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		if c.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: expected text at line %d", ErrInvalidUnit, c.Line)
		}
		out = append(out, c.Value)
	}
	return out, nil
}

// Record converts the entry to its stored form, passing each item through
// its code handler. Items are ordered mandatory, optional, then the rest
// by name.
func (e *Entry) Record() (EntryRecord, error) {
	rec := EntryRecord{
		Name:        e.Name,
		Type:        e.Kind,
		Collections: append([]string(nil), e.Collections...),
		Doc:         e.Doc,
		DocFile:     e.DocFile,
	}
	rules, err := e.orderedItems()
	if err != nil {
		return rec, err
	}
	for _, ir := range rules {
		v, err := ir.Rule.code(e.Bib[ir.Name])
		if err != nil {
			return rec, &ItemError{Entry: e.Name, Item: ir.Name, Err: fmt.Errorf("%w: %w", ErrHandlerFailure, err)}
		}
		rec.Items = append(rec.Items, ItemValue{Name: ir.Name, Value: v})
	}
	return rec, nil
}

// EntryFromRecord builds an unposted entry from its stored form.
func EntryFromRecord(rec EntryRecord, sourcefile string) (*Entry, error) {
	if rec.Name == "" {
		return nil, fmt.Errorf("%w: entry record without a name", ErrInvalidName)
	}
	if _, err := LookupSchema(rec.Type); err != nil {
		return nil, fmt.Errorf("entry %q: %w", rec.Name, err)
	}
	e := NewEntry(rec.Name, rec.Type)
	e.SourceFile = sourcefile
	e.Doc = rec.Doc
	e.DocFile = rec.DocFile
	e.Collections = append([]string(nil), rec.Collections...)
	for _, iv := range rec.Items {
		e.SetItem(iv.Name, iv.Value)
	}
	return e, nil
}

// DecodeUnit parses one declarative unit.
func DecodeUnit(data []byte) (Unit, error) {
	var u Unit
	if err := yaml.Unmarshal(data, &u); err != nil {
		return Unit{}, fmt.Errorf("%w: %w", ErrInvalidUnit, err)
	}
	if u.Version > UnitVersion {
		return Unit{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, u.Version)
	}
	return u, nil
}
