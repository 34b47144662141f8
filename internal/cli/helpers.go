package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/bibshelf/internal/output"
	"github.com/mesh-intelligence/bibshelf/pkg/library"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

func (a *app) loadOptions() library.LoadOptions {
	return library.LoadOptions{Relax: a.cfg.Relax, Strict: a.cfg.Strict, Verbose: a.verbose}
}

// openLibrary loads the configured library into a new master. A library
// that does not exist yet loads as empty.
func (a *app) openLibrary() (*types.Collection, error) {
	return a.openLibraryWith(a.loadOptions())
}

func (a *app) openLibraryWith(opts library.LoadOptions) (*types.Collection, error) {
	master := types.NewMaster()
	if _, err := os.Stat(a.cfg.Library); errors.Is(err, fs.ErrNotExist) {
		a.logger.Debug("library does not exist yet", zap.String("library", a.cfg.Library))
		return master, nil
	}
	report, err := library.Load(master, a.cfg.Library, opts)
	if report != nil {
		a.logReport(report)
	}
	if err != nil {
		return nil, err
	}
	return master, nil
}

// logReport logs every diagnostic at its severity and a summary at debug.
func (a *app) logReport(r *library.Report) {
	for _, d := range r.Diagnostics {
		fields := []zap.Field{zap.String("source", d.Source)}
		if d.Entry != "" {
			fields = append(fields, zap.String("entry", d.Entry))
		}
		if d.Item != "" {
			fields = append(fields, zap.String("item", d.Item))
		}
		switch d.Severity {
		case types.SeverityError:
			a.logger.Error(d.Message, fields...)
		case types.SeverityWarning:
			a.logger.Warn(d.Message, fields...)
		default:
			a.logger.Info(d.Message, fields...)
		}
	}
	a.logger.Debug("library loaded",
		zap.Int("units", r.Units),
		zap.Int("entries", r.Entries),
		zap.Int("collections", r.Collections),
		zap.Strings("created", r.Created),
	)
}

// saveLibrary writes master back in the configured layout.
func (a *app) saveLibrary(master *types.Collection, keep bool) error {
	switch a.cfg.Layout {
	case types.LayoutSingle:
		if err := library.SaveFile(master, a.cfg.Library); err != nil {
			return sysError(fmt.Errorf("save %s: %w", a.cfg.Library, err))
		}
	default:
		files, err := library.SaveDir(master, a.cfg.Library, library.SaveOptions{Keep: keep})
		if err != nil {
			return sysError(fmt.Errorf("save %s: %w", a.cfg.Library, err))
		}
		a.logger.Debug("library saved", zap.String("library", a.cfg.Library), zap.Int("files", len(files)))
	}
	return nil
}

// node returns the collection named by name anywhere in the graph, or the
// master itself for an empty name or the master's name.
func node(master *types.Collection, name string) (*types.Collection, error) {
	if name == "" || name == master.Name() {
		return master, nil
	}
	c := master.GetChild(name, true)
	if c == nil {
		return nil, fmt.Errorf("%w: collection %q", types.ErrNotFound, name)
	}
	return c, nil
}

// optionalArg returns args[0] or "".
func optionalArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

// width returns the terminal width of w, or the default for other writers.
func width(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		return output.TerminalWidth(f)
	}
	return output.DefaultWidth
}

// sortKey returns by, or the configured key when by is empty.
func (a *app) sortKey(by string) string {
	if by != "" {
		return by
	}
	if a.cfg.SortBy != "" {
		return a.cfg.SortBy
	}
	return types.DefaultSortKey
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// parseFilters turns key=value arguments into a catalog filter.
func parseFilters(args []string) (types.Filter, error) {
	filter := types.Filter{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q (expected key=value)", types.ErrInvalidFilter, arg)
		}
		filter[key] = value
	}
	return filter, nil
}
