// Package bibtex reads BibTeX databases into flat records. It understands
// @STRING macros, @COMMENT and @PREAMBLE blocks, % line comments between
// records, brace and quote delimited values, bare numbers and macro names,
// and # concatenation.
package bibtex

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ErrSyntax is wrapped by every parse error.
var ErrSyntax = errors.New("bibtex syntax error")

// Field is one name = value pair. Names are lower-cased; values have macros
// expanded, outer delimiters removed and whitespace runs collapsed.
type Field struct {
	Name  string
	Value string
}

// Record is one database entry.
type Record struct {
	Type   string // Upper-cased category, such as ARTICLE.
	Key    string
	Fields []Field
	Line   int
}

// Get returns the named field value.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// monthMacros are the month names every BibTeX style predefines.
var monthMacros = map[string]string{
	"jan": "January", "feb": "February", "mar": "March", "apr": "April",
	"may": "May", "jun": "June", "jul": "July", "aug": "August",
	"sep": "September", "oct": "October", "nov": "November", "dec": "December",
}

// Parse reads every record from r.
func Parse(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &parser{src: []rune(string(data)), line: 1, macros: map[string]string{}}
	for k, v := range monthMacros {
		p.macros[k] = v
	}
	return p.parse()
}

type parser struct {
	src    []rune
	pos    int
	line   int
	macros map[string]string
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, p.line, fmt.Sprintf(format, args...))
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) next() rune {
	r := p.src[p.pos]
	p.pos++
	if r == '\n' {
		p.line++
	}
	return r
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.next()
	}
}

func (p *parser) expect(r rune) error {
	p.skipSpace()
	if p.eof() || p.peek() != r {
		return p.errorf("expected %q", r)
	}
	p.next()
	return nil
}

func (p *parser) parse() ([]Record, error) {
	var out []Record
	for {
		if !p.skipToRecord() {
			return out, nil
		}
		line := p.line
		p.next() // @
		kind := strings.ToUpper(p.ident())
		if kind == "" {
			return nil, p.errorf("missing record type after @")
		}
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated @%s", kind)
		}
		open := p.next()
		var closer rune
		switch open {
		case '{':
			closer = '}'
		case '(':
			closer = ')'
		default:
			return nil, p.errorf("expected { or ( after @%s", kind)
		}
		switch kind {
		case "COMMENT", "PREAMBLE":
			if err := p.skipBlock(open, closer); err != nil {
				return nil, err
			}
		case "STRING":
			if err := p.parseMacros(closer); err != nil {
				return nil, err
			}
		default:
			rec, err := p.parseRecord(kind, closer)
			if err != nil {
				return nil, err
			}
			rec.Line = line
			out = append(out, rec)
		}
	}
}

// skipToRecord advances to the next @, skipping % comments. It reports
// false at end of input.
func (p *parser) skipToRecord() bool {
	for !p.eof() {
		switch p.peek() {
		case '@':
			return true
		case '%':
			for !p.eof() && p.peek() != '\n' {
				p.next()
			}
		default:
			p.next()
		}
	}
	return false
}

func (p *parser) skipBlock(open, closer rune) error {
	depth := 1
	for !p.eof() {
		switch p.next() {
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
	return p.errorf("unterminated block")
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_-:.+/'", r)
}

func (p *parser) ident() string {
	p.skipSpace()
	start := p.pos
	for !p.eof() && isIdentRune(p.peek()) {
		p.next()
	}
	return string(p.src[start:p.pos])
}

func (p *parser) parseMacros(closer rune) error {
	for {
		p.skipSpace()
		if p.peek() == closer {
			p.next()
			return nil
		}
		name := strings.ToLower(p.ident())
		if name == "" {
			return p.errorf("expected a macro name")
		}
		if err := p.expect('='); err != nil {
			return err
		}
		v, err := p.value(closer)
		if err != nil {
			return err
		}
		p.macros[name] = v
		p.skipSpace()
		if p.peek() == ',' {
			p.next()
		}
	}
}

func (p *parser) parseRecord(kind string, closer rune) (Record, error) {
	rec := Record{Type: kind}
	p.skipSpace()
	start := p.pos
	for !p.eof() && p.peek() != ',' && p.peek() != closer {
		p.next()
	}
	rec.Key = strings.TrimSpace(string(p.src[start:p.pos]))
	if rec.Key == "" {
		return rec, p.errorf("@%s record without a key", kind)
	}
	for {
		p.skipSpace()
		if p.eof() {
			return rec, p.errorf("unterminated record %q", rec.Key)
		}
		switch p.peek() {
		case ',':
			p.next()
			continue
		case closer:
			p.next()
			return rec, nil
		}
		name := strings.ToLower(p.ident())
		if name == "" {
			return rec, p.errorf("record %q: expected a field name", rec.Key)
		}
		if err := p.expect('='); err != nil {
			return rec, err
		}
		v, err := p.value(closer)
		if err != nil {
			return rec, err
		}
		rec.Fields = append(rec.Fields, Field{Name: name, Value: v})
	}
}

// value reads a # concatenation of delimited strings, numbers and macros.
func (p *parser) value(closer rune) (string, error) {
	var b strings.Builder
	for {
		p.skipSpace()
		if p.eof() {
			return "", p.errorf("unterminated value")
		}
		switch r := p.peek(); {
		case r == '{':
			p.next()
			s, err := p.braced()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case r == '"':
			p.next()
			s, err := p.quoted()
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		case isIdentRune(r):
			word := p.ident()
			if v, ok := p.macros[strings.ToLower(word)]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(word)
			}
		default:
			return "", p.errorf("unexpected %q in value", r)
		}
		p.skipSpace()
		if p.peek() != '#' {
			return collapse(b.String()), nil
		}
		p.next()
	}
}

// braced reads up to the brace that closes an already consumed {, keeping
// inner braces.
func (p *parser) braced() (string, error) {
	start, depth := p.pos, 1
	for !p.eof() {
		switch p.next() {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return string(p.src[start : p.pos-1]), nil
			}
		case '\\':
			if !p.eof() {
				p.next()
			}
		}
	}
	return "", p.errorf("unterminated braced value")
}

// quoted reads up to the closing quote of an already consumed ", ignoring
// quotes inside braces.
func (p *parser) quoted() (string, error) {
	start, depth := p.pos, 0
	for !p.eof() {
		switch p.next() {
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				return string(p.src[start : p.pos-1]), nil
			}
		}
	}
	return "", p.errorf("unterminated quoted value")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
