// Package cli implements the shelf command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/bibshelf/internal/output"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds global flag values and the state every subcommand shares.
type app struct {
	configDir  string
	library    string
	catalogDir string
	jsonMode   bool
	verbose    bool
	relax      bool
	strict     bool

	cfg    types.Config
	logger *zap.Logger
}

// NewRootCmd creates the top-level "shelf" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "shelf",
		Short: "A personal bibliography manager",
		Long: `Shelf keeps a bibliography as declarative YAML units: entries with
typed items, grouped into collections that may nest, share members and even
form cycles. It validates entries, exports BibTeX and imports it.`,
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setupLogger(); err != nil {
				return err
			}
			if w, ok := cmd.OutOrStdout().(*os.File); !ok || !output.IsTerminal(w) {
				output.SetEscapes(false)
			}
			if cmd.Name() == "version" {
				return nil
			}
			return a.loadSettings(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.library, "library", "", "library directory or unit file (default: $(CWD)/.shelf-library)")
	pf.StringVar(&a.catalogDir, "catalog-dir", "", "catalog directory (default: platform data dir)")
	pf.BoolVar(&a.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log every loaded entry")
	pf.BoolVar(&a.relax, "relax", false, "report schema violations instead of failing")
	pf.BoolVar(&a.strict, "strict", false, "reject items an entry kind does not list")

	root.AddCommand(
		a.newVersionCmd(),
		a.newInitCmd(),
		a.newListCmd(),
		a.newChildrenCmd(),
		a.newShowCmd(),
		a.newExportCmd(),
		a.newSaveCmd(),
		a.newImportCmd(),
		a.newDuplicatesCmd(),
		a.newCheckCmd(),
		a.newCatalogCmd(),
	)
	return root
}

// setupLogger builds the CLI logger: warnings and worse on stderr, debug
// output with --verbose.
func (a *app) setupLogger() error {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if a.verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return sysError(fmt.Errorf("initialize logger: %w", err))
	}
	a.logger = logger
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "shelf:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// systemError marks failures of the environment rather than of the input.
type systemError struct{ err error }

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

func sysError(err error) error {
	if err == nil {
		return nil
	}
	return &systemError{err: err}
}

// exitCode maps an error to exitSysError for system and file-system
// failures and exitUserError for everything else.
func exitCode(err error) int {
	var se *systemError
	var pe *fs.PathError
	if errors.As(err, &se) || errors.As(err, &pe) {
		return exitSysError
	}
	return exitUserError
}
