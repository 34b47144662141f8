package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/bibshelf/pkg/sqlite"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

func (a *app) newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query the library through its SQLite catalog",
	}
	cmd.AddCommand(a.newCatalogSyncCmd(), a.newCatalogQueryCmd())
	return cmd
}

// syncCatalog loads the library and snapshots it into a freshly attached
// catalog. The caller must Detach the result.
func (a *app) syncCatalog() (types.Catalog, *types.Collection, error) {
	master, err := a.openLibrary()
	if err != nil {
		return nil, nil, err
	}
	catalog := sqlite.NewCatalog()
	if err := catalog.Attach(a.cfg); err != nil {
		return nil, nil, sysError(fmt.Errorf("attach catalog: %w", err))
	}
	if err := catalog.Sync(master); err != nil {
		catalog.Detach()
		return nil, nil, sysError(fmt.Errorf("sync catalog: %w", err))
	}
	a.logger.Debug("catalog synced", zap.String("catalog_dir", a.cfg.CatalogDir), zap.Int("entries", master.Len()))
	return catalog, master, nil
}

func (a *app) newCatalogSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the catalog from the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, master, err := a.syncCatalog()
			if err != nil {
				return err
			}
			defer catalog.Detach()

			out := cmd.OutOrStdout()
			if a.jsonMode {
				return printJSON(out, map[string]any{"catalog_dir": a.cfg.CatalogDir, "entries": master.Len()})
			}
			fmt.Fprintf(out, "Catalog synced: %d entries in %s\n", master.Len(), a.cfg.CatalogDir)
			return nil
		},
	}
}

func (a *app) newCatalogQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query [key=value...]",
		Short: "List entries matching exact filters",
		Long: `Rebuild the catalog and list the entries matching every filter. Keys are
kind, collection (a direct member of a collection with that name) and
item.<name> (the item as BibTeX shows it).

Example:
  shelf catalog query kind=article
  shelf catalog query collection=fabrics item.year=2020`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilters(args)
			if err != nil {
				return err
			}
			catalog, _, err := a.syncCatalog()
			if err != nil {
				return err
			}
			defer catalog.Detach()

			names, err := catalog.Fetch(filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonMode {
				return printJSON(out, names)
			}
			for _, n := range names {
				fmt.Fprintln(out, n)
			}
			return nil
		},
	}
}
