package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the configuration and an empty library",
		Long: `Create the configuration directory with a default config.yaml and an
empty library in the configured layout. An existing library is left alone.`,
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	created := false
	if _, err := os.Stat(a.cfg.Library); errors.Is(err, fs.ErrNotExist) {
		if a.cfg.Layout == types.LayoutSingle {
			if err := os.MkdirAll(filepath.Dir(a.cfg.Library), 0o755); err != nil {
				return sysError(fmt.Errorf("create library directory: %w", err))
			}
		}
		if err := a.saveLibrary(types.NewMaster(), false); err != nil {
			return err
		}
		created = true
	} else if err != nil {
		return sysError(fmt.Errorf("stat library: %w", err))
	}

	out := cmd.OutOrStdout()
	if a.jsonMode {
		return printJSON(out, map[string]any{
			"config":  a.configDir,
			"library": a.cfg.Library,
			"layout":  a.cfg.Layout,
			"created": created,
		})
	}
	if created {
		fmt.Fprintln(out, "Shelf initialized successfully")
	} else {
		fmt.Fprintln(out, "Shelf already initialized")
	}
	fmt.Fprintln(out, "  config: ", a.configDir)
	fmt.Fprintln(out, "  library:", a.cfg.Library)
	return nil
}
