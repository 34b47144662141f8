package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/mesh-intelligence/bibshelf"

// Version is stamped by the build.
var Version = "0.1.0"

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the shelf version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]string{"version": Version, "module": modulePath})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "shelf v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
