package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/bibshelf/pkg/library"
)

func (a *app) newExportCmd() *cobra.Command {
	var outPath, by string
	cmd := &cobra.Command{
		Use:   "export [collection]",
		Short: "Write BibTeX for the entries reachable from a collection",
		Long: `Write every entry reachable from the named collection, or from the whole
library, as BibTeX. Each entry is written once, sorted by --by.

Example:
  shelf export
  shelf export fabrics -o fabrics.bib`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			master, err := a.openLibrary()
			if err != nil {
				return err
			}
			c, err := node(master, optionalArg(args))
			if err != nil {
				return err
			}
			if outPath == "" {
				return library.SaveBib(cmd.OutOrStdout(), c, a.sortKey(by))
			}
			if err := library.SaveBibFile(outPath, c, a.sortKey(by)); err != nil {
				return sysError(err)
			}
			a.logger.Debug("bibtex written", zap.String("path", outPath), zap.String("collection", c.Name()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write to a file instead of standard output")
	cmd.Flags().StringVar(&by, "by", "", "item to sort by (default: sort_by from config.yaml)")
	return cmd
}

func (a *app) newSaveCmd() *cobra.Command {
	var single string
	var keep bool
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Load the library and write it back in canonical form",
		Long: `Load the library and save it again: item values are normalized, missing
collections that entries nominate are created, and unit files no entry maps
to are removed unless --keep is given. --single writes the whole library to
one unit file instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			master, err := a.openLibrary()
			if err != nil {
				return err
			}
			target := a.cfg.Library
			if single != "" {
				if err := library.SaveFile(master, single); err != nil {
					return sysError(err)
				}
				target = single
			} else if err := a.saveLibrary(master, keep); err != nil {
				return err
			}

			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]any{"saved": target, "entries": master.Len()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d entries to %s\n", master.Len(), target)
			return nil
		},
	}
	cmd.Flags().StringVar(&single, "single", "", "write the whole library to this unit file")
	cmd.Flags().BoolVar(&keep, "keep", false, "keep unit files this save did not write")
	return cmd
}

func (a *app) newImportCmd() *cobra.Command {
	var collection string
	cmd := &cobra.Command{
		Use:   "import <file.bib>",
		Short: "Add the records of a BibTeX file to the library",
		Long: `Parse a BibTeX file, validate every record as an entry, and save the
library. Records whose key is already in the library are skipped with a
warning.

Example:
  shelf import refs.bib --collection inbox`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			master, err := a.openLibrary()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return sysError(err)
			}
			defer f.Close()

			opts := library.ImportOptions{LoadOptions: a.loadOptions(), Collection: collection}
			report, err := library.ImportBib(master, f, args[0], opts)
			if report != nil {
				a.logReport(report)
			}
			if err != nil {
				return err
			}
			if err := a.saveLibrary(master, false); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonMode {
				return printJSON(out, map[string]any{
					"imported": report.Entries,
					"created":  append([]string{}, report.Created...),
					"warnings": report.Warnings(),
				})
			}
			fmt.Fprintf(out, "Imported %d entries from %s\n", report.Entries, args[0])
			for _, name := range report.Created {
				fmt.Fprintf(out, "  created collection %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "collection every imported entry joins")
	return cmd
}
