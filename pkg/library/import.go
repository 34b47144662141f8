package library

import (
	"fmt"
	"io"
	"strings"

	"github.com/mesh-intelligence/bibshelf/internal/bibtex"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// ImportOptions configure ImportBib.
type ImportOptions struct {
	LoadOptions
	// Collection, when set, is nominated by every imported entry.
	Collection string
}

// tagAliases maps BibTeX categories with no schema of their own to the
// kind that stores them.
var tagAliases = map[string]types.Kind{
	"CONFERENCE":  types.KindConference,
	"ONLINE":      types.KindWebsite,
	"WWW":         types.KindWebsite,
	"UNPUBLISHED": types.KindMisc,
}

// ImportBib reads a BibTeX database from r and adds its records to master
// as entries. Records are posted like loaded entries, and the nomination
// pass runs afterwards, so an imported entry can create collections.
func ImportBib(master *types.Collection, r io.Reader, source string, opts ImportOptions) (*Report, error) {
	s, err := newSession(master, opts.LoadOptions)
	if err != nil {
		return nil, err
	}
	recs, err := bibtex.Parse(r)
	if err != nil {
		return s.report, fmt.Errorf("%s: %w: %w", source, types.ErrParse, err)
	}
	s.report.Units++
	for _, rec := range recs {
		e, err := entryFromBib(rec, source, s.report)
		if err != nil {
			if err := s.fail(source, rec.Key, err); err != nil {
				return s.report, err
			}
			continue
		}
		if opts.Collection != "" {
			e.Nominate(opts.Collection)
		}
		if err := s.absorb(e, source); err != nil {
			return s.report, err
		}
	}
	return s.report, s.finish()
}

// KindForBib returns the kind that stores a BibTeX category.
func KindForBib(tag string) (types.Kind, bool) {
	if k, ok := types.KindForTag(tag); ok {
		return k, true
	}
	k, ok := tagAliases[strings.ToUpper(tag)]
	return k, ok
}

func entryFromBib(rec bibtex.Record, source string, report *Report) (*types.Entry, error) {
	kind, ok := KindForBib(rec.Type)
	if !ok {
		return nil, fmt.Errorf("line %d: %w: @%s", rec.Line, types.ErrUnknownKind, rec.Type)
	}
	if err := validName(rec.Key); err != nil {
		return nil, fmt.Errorf("line %d: %w", rec.Line, err)
	}
	e := types.NewEntry(rec.Key, kind)
	e.SourceFile = source
	for _, f := range rec.Fields {
		if types.IsBuiltin(f.Name) {
			report.warn(source, rec.Key, "field %q shadows an entry attribute; dropped", f.Name)
			continue
		}
		e.SetItem(f.Name, f.Value)
	}
	return e, nil
}

func validName(name string) error {
	if strings.ContainsAny(name, " \t\n{}(),\"") {
		return fmt.Errorf("%w: %q", types.ErrInvalidName, name)
	}
	return nil
}
