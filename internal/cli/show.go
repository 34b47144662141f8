package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bibshelf/internal/output"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// entryJSON is the JSON form of one entry. Items hold code-form values.
type entryJSON struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Collections []string       `json:"collections"`
	Doc         string         `json:"doc,omitempty"`
	DocFile     string         `json:"docfile,omitempty"`
	SourceFile  string         `json:"sourcefile,omitempty"`
	Items       map[string]any `json:"items"`
}

func (a *app) newShowCmd() *cobra.Command {
	var source, bib bool
	cmd := &cobra.Command{
		Use:   "show <entry>",
		Short: "Display an entry",
		Long: `Display an entry as a citation with its notes. --source prints the entry
as a unit, as it would be saved; --bib prints its BibTeX record.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			master, err := a.openLibrary()
			if err != nil {
				return err
			}
			e := master.Get(args[0], false)
			if e == nil {
				return fmt.Errorf("%w: entry %q", types.ErrNotFound, args[0])
			}

			out := cmd.OutOrStdout()
			switch {
			case a.jsonMode:
				rec, err := e.Record()
				if err != nil {
					return err
				}
				ej := entryJSON{
					Name:        rec.Name,
					Type:        string(rec.Type),
					Collections: append([]string{}, rec.Collections...),
					Doc:         rec.Doc,
					DocFile:     rec.DocFile,
					SourceFile:  e.SourceFile,
					Items:       map[string]any{},
				}
				for _, iv := range rec.Items {
					ej.Items[iv.Name] = iv.Value
				}
				return printJSON(out, ej)
			case source:
				return e.Write(out, types.WriteOptions{Header: true})
			case bib:
				return e.WriteBib(out)
			}
			fmt.Fprint(out, e.Text(types.TextOptions{Doc: true, ANSI: output.Escapes(), Width: width(out)}))
			if len(e.Collections) > 0 {
				fmt.Fprintln(out, output.TerminalFormatAsDim("collections: "+strings.Join(e.Collections, ", ")))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&source, "source", false, "print the entry as a unit")
	cmd.Flags().BoolVar(&bib, "bib", false, "print the entry as BibTeX")
	cmd.MarkFlagsMutuallyExclusive("source", "bib")
	return cmd
}
