// Package paths resolves the configuration directory, the library location
// and the catalog directory.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user configuration and data directories.
const AppName = "shelf"

// DefaultLibraryName is the CWD-relative library used when nothing else
// names one.
const DefaultLibraryName = ".shelf-library"

// Environment variable names for directory overrides.
const (
	EnvConfigDir  = "SHELF_CONFIG_DIR"
	EnvLibrary    = "SHELF_LIBRARY"
	EnvCatalogDir = "SHELF_CATALOG_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/shelf (fallback ~/.config/shelf)
// macOS:   ~/Library/Application Support/shelf
// Windows: %APPDATA%/shelf
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	return userDir()
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/shelf (fallback ~/.local/share/shelf)
// macOS:   ~/Library/Application Support/shelf
// Windows: %APPDATA%/shelf
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	return userDir()
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}

// userDir is the macOS and Windows location: ~/Library/Application Support
// on macOS and %APPDATA% on Windows.
func userDir() (string, error) {
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > SHELF_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	return resolve(flag, "", EnvConfigDir, DefaultConfigDir)
}

// ResolveLibrary returns the library path following the precedence chain:
// flag > configYAMLValue > SHELF_LIBRARY env > $(CWD)/.shelf-library.
func ResolveLibrary(flag, configYAMLValue string) (string, error) {
	return resolve(flag, configYAMLValue, EnvLibrary, func() (string, error) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, DefaultLibraryName), nil
	})
}

// ResolveCatalogDir returns the catalog directory following the precedence
// chain: flag > configYAMLValue > SHELF_CATALOG_DIR env > DefaultDataDir().
func ResolveCatalogDir(flag, configYAMLValue string) (string, error) {
	return resolve(flag, configYAMLValue, EnvCatalogDir, DefaultDataDir)
}

func resolve(flag, configYAMLValue, env string, fallback func() (string, error)) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if v := os.Getenv(env); v != "" {
		return filepath.Abs(v)
	}
	return fallback()
}
