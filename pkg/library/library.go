// Package library loads and saves a bibliography: declarative YAML units
// holding entries and collections, read into a master collection and
// written back so that loading the output reproduces the same graph. It
// also exports BibTeX and imports it.
//
// Nothing here prints. Findings that do not stop a load are returned as
// diagnostics in a Report.
package library

import (
	"fmt"

	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// Unit file naming.
const (
	// UnitExt is the suffix of every unit file.
	UnitExt = ".shelf.yaml"
	// CollectionsUnit holds every collection in directory layout. The
	// leading "+" sorts it before any sanitized entry file name.
	CollectionsUnit = "+collections" + UnitExt
)

// LoadOptions configure Load, LoadReader and ImportBib.
type LoadOptions struct {
	Relax   bool // Turn schema violations and bad records into diagnostics.
	Strict  bool // Reject items outside an entry's rule tables.
	Verbose bool // Report every posted entry.
	Shallow bool // Do not descend into subdirectories.
}

func (o LoadOptions) post() types.PostOptions {
	return types.PostOptions{Lenient: o.Relax, Strict: o.Strict, Verbose: o.Verbose}
}

// Report summarizes a load.
type Report struct {
	Units       int      // Unit files or streams read.
	Entries     int      // Entries added to the master.
	Collections int      // Collection records added to the graph.
	Created     []string // Collections created for self-nominating entries.
	Diagnostics []types.Diagnostic
}

func (r *Report) warn(source, entry, format string, args ...any) {
	r.add(types.SeverityWarning, source, entry, format, args...)
}

func (r *Report) add(severity, source, entry, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, types.Diagnostic{
		Severity: severity,
		Source:   source,
		Entry:    entry,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warnings counts diagnostics of warning severity or worse.
func (r *Report) Warnings() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity != types.SeverityInfo {
			n++
		}
	}
	return n
}
