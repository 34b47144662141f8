package library

import (
	"fmt"
	"io"

	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// SaveBib writes every entry reachable from node as BibTeX, each once,
// sorted by the named item. An empty by uses types.DefaultSortKey.
func SaveBib(w io.Writer, node *types.Collection, by string) error {
	if by == "" {
		by = types.DefaultSortKey
	}
	entries, err := node.Sort(by)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := e.WriteBib(w); err != nil {
			return err
		}
	}
	return nil
}

// SaveBibFile writes SaveBib output to path atomically.
func SaveBibFile(path string, node *types.Collection, by string) error {
	if err := writeFileAtomic(path, func(w io.Writer) error {
		return SaveBib(w, node, by)
	}); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
