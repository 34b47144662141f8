package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bibshelf/internal/output"
	"github.com/mesh-intelligence/bibshelf/pkg/library"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// errProblems is returned by check when the library has findings.
var errProblems = errors.New("library has problems")

func (a *app) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the library and report every problem",
		Long: `Load the library in relaxed mode so that every schema violation, unknown
reference and duplicate is reported rather than the first one stopping the
load. Exits with status 1 when anything is reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			master := types.NewMaster()
			opts := a.loadOptions()
			opts.Relax = true
			opts.Verbose = false

			var report *library.Report
			if _, err := os.Stat(a.cfg.Library); err == nil {
				r, err := library.Load(master, a.cfg.Library, opts)
				if err != nil {
					return err
				}
				report = r
			} else {
				report = &library.Report{}
			}

			out := cmd.OutOrStdout()
			problems := report.Warnings()
			if a.jsonMode {
				diags := report.Diagnostics
				if diags == nil {
					diags = []types.Diagnostic{}
				}
				if err := printJSON(out, diags); err != nil {
					return err
				}
			} else {
				for _, d := range report.Diagnostics {
					fmt.Fprintln(out, output.Diagnostic(d))
				}
				fmt.Fprintf(out, "%d %s, %d %s, %d %s\n",
					master.Len(), output.Plural(master.Len(), "entry", "entries"),
					report.Collections, output.Plural(report.Collections, "collection", "collections"),
					problems, output.Plural(problems, "problem", "problems"))
			}
			if problems > 0 {
				return fmt.Errorf("%w: %d found", errProblems, problems)
			}
			return nil
		},
	}
}
