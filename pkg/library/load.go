package library

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// Load reads a unit file, or every unit file under a directory, into
// master. Entries are posted as they are absorbed. After all units are read
// the collection records are linked, members attached, and every entry is
// added to each collection it nominates; a nominated collection that does
// not exist is created with a warning.
func Load(master *types.Collection, path string, opts LoadOptions) (*Report, error) {
	s, err := newSession(master, opts)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if info.IsDir() {
		if err := s.readDir(path); err != nil {
			return s.report, err
		}
	} else if err := s.readFile(path); err != nil {
		return s.report, err
	}
	return s.report, s.finish()
}

// LoadReader reads one unit from r into master. source is recorded as the
// entries' source file.
func LoadReader(master *types.Collection, r io.Reader, source string, opts LoadOptions) (*Report, error) {
	s, err := newSession(master, opts)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	if err := s.readUnit(data, source); err != nil {
		return s.report, err
	}
	return s.report, s.finish()
}

// LoadUnit adds an already decoded unit to master, as LoadReader does.
func LoadUnit(master *types.Collection, u types.Unit, source string, opts LoadOptions) (*Report, error) {
	s, err := newSession(master, opts)
	if err != nil {
		return nil, err
	}
	if err := s.absorbUnit(u, source); err != nil {
		return s.report, err
	}
	return s.report, s.finish()
}

// session accumulates the records of one load until finish links them.
type session struct {
	master  *types.Collection
	opts    LoadOptions
	report  *Report
	nodes   []*pendingNode
	byID    map[string]*pendingNode
	byName  map[string][]*pendingNode
	entries []*types.Entry
}

// pendingNode is a collection read from a unit but not yet linked.
type pendingNode struct {
	node   *types.Collection
	rec    types.CollectionRecord
	source string
}

func newSession(master *types.Collection, opts LoadOptions) (*session, error) {
	if master == nil || !master.IsMaster() {
		return nil, fmt.Errorf("%w: load target must be a master collection", types.ErrNotMaster)
	}
	return &session{
		master: master,
		opts:   opts,
		report: &Report{},
		byID:   map[string]*pendingNode{},
		byName: map[string][]*pendingNode{},
	}, nil
}

// fail returns err, or records it as a diagnostic and returns nil when the
// load is relaxed.
func (s *session) fail(source, entry string, err error) error {
	if !s.opts.Relax {
		if source != "" {
			return fmt.Errorf("%s: %w", source, err)
		}
		return err
	}
	s.report.add(types.SeverityError, source, entry, "%v", err)
	return nil
}

func (s *session) readDir(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && s.opts.Shallow {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), UnitExt) {
			return nil
		}
		return s.readFile(path)
	})
}

func (s *session) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return s.fail(path, "", err)
	}
	return s.readUnit(data, path)
}

func (s *session) readUnit(data []byte, source string) error {
	u, err := types.DecodeUnit(data)
	if err != nil {
		return s.fail(source, "", err)
	}
	return s.absorbUnit(u, source)
}

func (s *session) absorbUnit(u types.Unit, source string) error {
	s.report.Units++
	for _, rec := range u.Entries {
		if err := s.absorbEntry(rec, source); err != nil {
			return err
		}
	}
	for _, rec := range u.Collections {
		if err := s.absorbCollection(rec, source); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) absorbEntry(rec types.EntryRecord, source string) error {
	e, err := types.EntryFromRecord(rec, source)
	if err != nil {
		return s.fail(source, rec.Name, err)
	}
	return s.absorb(e, source)
}

// absorb posts e and adds it to the master unless an entry of the same name
// is already there.
func (s *session) absorb(e *types.Entry, source string) error {
	res, err := e.Post(s.opts.post())
	s.report.Diagnostics = append(s.report.Diagnostics, res.Diagnostics...)
	if err != nil {
		return s.fail(source, e.Name, err)
	}
	if s.master.Has(e.Name, false) {
		s.report.warn(source, e.Name, "entry already defined; ignoring this definition")
		return nil
	}
	if err := s.master.Add(e); err != nil {
		return s.fail(source, e.Name, err)
	}
	s.entries = append(s.entries, e)
	s.report.Entries++
	return nil
}

func (s *session) absorbCollection(rec types.CollectionRecord, source string) error {
	if rec.Kind == types.KindMasterCollection {
		return s.fail(source, "", fmt.Errorf("%w: collection %q cannot be a master", types.ErrStructural, rec.Name))
	}
	node, err := types.RestoreCollection(rec.Kind, rec.Name, rec.ID)
	if err != nil {
		return s.fail(source, "", err)
	}
	if rec.ID != "" {
		if _, dup := s.byID[rec.ID]; dup {
			s.report.warn(source, "", "collection id %s already defined; ignoring %q", rec.ID, rec.Name)
			return nil
		}
	}
	if node.Kind() == types.KindCollectionNode && !rec.Detached {
		if s.master.HasChild(rec.Name, false) || s.topLevel(rec.Name) {
			s.report.warn(source, "", "collection %q already defined; ignoring this definition", rec.Name)
			return nil
		}
	}
	node.Doc = rec.Doc
	node.SourceFile = source
	p := &pendingNode{node: node, rec: rec, source: source}
	s.nodes = append(s.nodes, p)
	s.byID[node.ID()] = p
	s.byName[rec.Name] = append(s.byName[rec.Name], p)
	return nil
}

// topLevel reports whether this load already holds a top-level collection
// with the given name.
func (s *session) topLevel(name string) bool {
	for _, p := range s.byName[name] {
		if p.node.Kind() == types.KindCollectionNode && !p.rec.Detached {
			return true
		}
	}
	return false
}

// resolve finds the node a child reference names: a node ID first, then a
// unique name in this load, then a node already in the master's graph.
func (s *session) resolve(ref string) (*types.Collection, error) {
	if p, ok := s.byID[ref]; ok {
		return p.node, nil
	}
	switch candidates := s.byName[ref]; len(candidates) {
	case 0:
	case 1:
		return candidates[0].node, nil
	default:
		return nil, fmt.Errorf("%w: child reference %q is ambiguous; use the collection id", types.ErrDuplicateName, ref)
	}
	if node := s.master.GetChild(ref, true); node != nil {
		return node, nil
	}
	return nil, fmt.Errorf("%w: child reference %q", types.ErrNotFound, ref)
}

// finish links the pending records into the master graph and runs the
// self-nomination pass. Top-level records join the master first; their
// descendants are linked breadth first so that every node already belongs
// to the master when it gains children or members. Records that no
// top-level record reaches are reported and dropped.
func (s *session) finish() error {
	var queue []*pendingNode
	for _, p := range s.nodes {
		if p.node.Kind() != types.KindCollectionNode || p.rec.Detached {
			continue
		}
		if err := s.master.AddChild(p.node); err != nil {
			if err := s.fail(p.source, "", fmt.Errorf("collection %q: %w", p.rec.Name, err)); err != nil {
				return err
			}
			continue
		}
		queue = append(queue, p)
	}
	linked := map[*pendingNode]bool{}
	for _, p := range queue {
		linked[p] = true
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, ref := range p.rec.Children {
			child, err := s.resolve(ref)
			if err == nil {
				err = p.node.AddChild(child)
			}
			if err != nil {
				if err := s.fail(p.source, "", fmt.Errorf("collection %q: %w", p.rec.Name, err)); err != nil {
					return err
				}
				continue
			}
			if cp, ok := s.byID[child.ID()]; ok && !linked[cp] {
				linked[cp] = true
				queue = append(queue, cp)
			}
		}
		for _, name := range p.rec.Members {
			e := s.master.Get(name, false)
			if e == nil {
				s.report.warn(p.source, name, "collection %q lists an unknown entry", p.rec.Name)
				continue
			}
			if err := p.node.Add(e); err != nil {
				if err := s.fail(p.source, name, err); err != nil {
					return err
				}
			}
		}
	}
	for _, p := range s.nodes {
		if !linked[p] {
			s.report.warn(p.source, "", "collection %q is not reachable from any top-level collection; ignoring it", p.rec.Name)
			continue
		}
		s.report.Collections++
	}
	return s.nominate()
}

// nominate adds every entry read in this load to the collections it names,
// creating missing ones as top-level collections.
func (s *session) nominate() error {
	for _, e := range s.entries {
		for _, name := range e.Collections {
			c := s.master.GetChild(name, true)
			if c == nil {
				c = types.NewCollection(name)
				c.SourceFile = e.SourceFile
				if err := s.master.AddChild(c); err != nil {
					if err := s.fail(e.SourceFile, e.Name, err); err != nil {
						return err
					}
					continue
				}
				s.report.Created = append(s.report.Created, name)
				s.report.warn(e.SourceFile, e.Name, "created missing collection %q", name)
			}
			if err := c.Add(e); err != nil {
				if err := s.fail(e.SourceFile, e.Name, err); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
