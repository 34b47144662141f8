package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/bibshelf/internal/paths"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyLibrary    = "library"
	cfgKeyLayout     = "layout"
	cfgKeyCatalogDir = "catalog_dir"
	cfgKeyRelax      = "relax"
	cfgKeyStrict     = "strict"
	cfgKeySortBy     = "sort_by"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# shelf configuration

# Library location: a directory of unit files, or one unit file when the
# layout is single. Overridable by --library and SHELF_LIBRARY.
# library:

# directory (one unit per entry) or single (one unit file).
layout: directory

# Catalog directory (optional; overridable by --catalog-dir).
# catalog_dir:

# Report schema violations instead of failing; reject unlisted items.
relax: false
strict: false

# Item used to order listings and BibTeX output.
sort_by: author
`

// loadConfig reads config.yaml from the resolved config directory using Viper.
// It creates the config directory and a default config.yaml on first run.
// A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, sysError(fmt.Errorf("ensure config dir: %w", err))
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, sysError(fmt.Errorf("ensure default config: %w", err))
	}

	v := viper.New()
	v.SetDefault(cfgKeyLayout, types.LayoutDirectory)
	v.SetDefault(cfgKeySortBy, types.DefaultSortKey)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("SHELF")
	_ = v.BindEnv(cfgKeyLayout)
	_ = v.BindEnv(cfgKeySortBy)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// loadSettings resolves directories and reads config.yaml into a.cfg.
// Flags win over the file.
func (a *app) loadSettings(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	lib, err := paths.ResolveLibrary(a.library, v.GetString(cfgKeyLibrary))
	if err != nil {
		return sysError(fmt.Errorf("resolve library: %w", err))
	}
	catalogDir, err := paths.ResolveCatalogDir(a.catalogDir, v.GetString(cfgKeyCatalogDir))
	if err != nil {
		return sysError(fmt.Errorf("resolve catalog dir: %w", err))
	}

	a.cfg = types.Config{
		Library:    lib,
		Layout:     v.GetString(cfgKeyLayout),
		CatalogDir: catalogDir,
		Relax:      v.GetBool(cfgKeyRelax),
		Strict:     v.GetBool(cfgKeyStrict),
		SortBy:     v.GetString(cfgKeySortBy),
	}
	if cmd.Flags().Changed("relax") {
		a.cfg.Relax = a.relax
	}
	if cmd.Flags().Changed("strict") {
		a.cfg.Strict = a.strict
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", filepath.Join(configDir, configFileExt), err)
	}
	return nil
}
