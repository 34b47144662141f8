package types

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteOptions configure Entry.Write.
type WriteOptions struct {
	// Header adds the format version line so the output stands alone as a
	// complete unit.
	Header bool
}

// Write renders the entry as a declarative unit holding only this entry.
// Loading the output and posting the result yields the same items.
func (e *Entry) Write(w io.Writer, opts WriteOptions) error {
	rec, err := e.Record()
	if err != nil {
		return err
	}
	u := Unit{Entries: []EntryRecord{rec}}
	if opts.Header {
		u.Version = UnitVersion
	}
	return EncodeUnit(w, u)
}

// EncodeUnit writes a unit as YAML.
func EncodeUnit(w io.Writer, u Unit) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(u); err != nil {
		return fmt.Errorf("encoding unit: %w", err)
	}
	return enc.Close()
}

// WriteBib renders the entry as a BibTeX record: mandatory items first,
// then optional items, then the rest, each through its output handler.
// Kinds with an export transform are rendered as the transformed entry.
func (e *Entry) WriteBib(w io.Writer) error {
	s, err := e.Schema()
	if err != nil {
		return fmt.Errorf("entry %q: %w", e.Name, err)
	}
	if s.Export != nil {
		x, err := s.Export(e)
		if err != nil {
			return &ItemError{Entry: e.Name, Err: fmt.Errorf("%w: %w", ErrHandlerFailure, err)}
		}
		return x.WriteBib(w)
	}
	rules, err := e.orderedItems()
	if err != nil {
		return err
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "@%s{%s,\n", s.Tag, e.Name)
	for _, ir := range rules {
		text, err := ir.Rule.output(e.Bib[ir.Name])
		if err != nil {
			return &ItemError{Entry: e.Name, Item: ir.Name, Err: fmt.Errorf("%w: %w", ErrHandlerFailure, err)}
		}
		fmt.Fprintf(&b, "  %s = {%s},\n", ir.Name, text)
	}
	b.WriteString("}\n")
	_, err = w.Write(b.Bytes())
	return err
}

// Format renders one item the way BibTeX output shows it.
func (e *Entry) Format(name string) (string, error) {
	v, ok := e.Bib[name]
	if !ok {
		return "", fmt.Errorf("entry %q: %w: %q", e.Name, ErrMissingItem, name)
	}
	text, err := e.Rules(name).output(v)
	if err != nil {
		return "", &ItemError{Entry: e.Name, Item: name, Err: fmt.Errorf("%w: %w", ErrHandlerFailure, err)}
	}
	return text, nil
}

// TextOptions configure Entry.Text.
type TextOptions struct {
	Doc   bool // Append the entry's notes.
	ANSI  bool // Use terminal escapes for bold and italic.
	Width int  // Wrap lines longer than Width; zero disables wrapping.
}

// textStyle holds the escape sequences used by citation renderers.
type textStyle struct {
	normal, italic, bold string
}

func (st textStyle) it(s string) string { return st.italic + s + st.normal }
func (st textStyle) bf(s string) string { return st.bold + s + st.normal }

// Text renders a human-readable citation.
func (e *Entry) Text(opts TextOptions) string {
	var st textStyle
	if opts.ANSI {
		st = textStyle{normal: "\033[0m", italic: "\033[3m", bold: "\033[1m"}
	}
	var out string
	if s, err := e.Schema(); err == nil && s.Cite != nil {
		out = s.Cite(e, st)
	} else {
		out = e.Name
	}
	if opts.Doc && e.Doc != "" {
		out += "\n\n" + e.Doc
	}
	if opts.Width > 0 {
		return wrap(out, opts.Width)
	}
	return out + "\n"
}

// wrap breaks paragraphs at whitespace so no line exceeds width, unless a
// single word is longer. Blank-line paragraph breaks are kept.
func wrap(text string, width int) string {
	var b strings.Builder
	for i, para := range strings.Split(text, "\n\n") {
		if i > 0 {
			b.WriteString("\n\n")
		}
		line := 0
		for _, word := range strings.Fields(para) {
			n := len([]rune(word))
			switch {
			case line == 0:
				line = n
			case line+1+n > width:
				b.WriteByte('\n')
				line = n
			default:
				b.WriteByte(' ')
				line += 1 + n
			}
			b.WriteString(word)
		}
	}
	b.WriteByte('\n')
	return b.String()
}
