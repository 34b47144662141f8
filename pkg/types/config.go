package types

import "errors"

// Config holds the library location and loading behavior.
type Config struct {
	Library    string `json:"library" yaml:"library"`
	Layout     string `json:"layout" yaml:"layout"`
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir"`
	Relax      bool   `json:"relax" yaml:"relax"`
	Strict     bool   `json:"strict" yaml:"strict"`
	SortBy     string `json:"sort_by" yaml:"sort_by"`
}

// Library layouts.
const (
	LayoutDirectory = "directory" // One unit per entry plus a collections unit.
	LayoutSingle    = "single"    // Everything in one unit file.
)

// Config validation errors.
var (
	ErrLibraryEmpty  = errors.New("library path must not be empty")
	ErrLayoutUnknown = errors.New("unknown library layout")
	ErrRelaxStrict   = errors.New("relax and strict cannot both be set")
)

// knownLayouts lists the layouts that Validate accepts.
var knownLayouts = map[string]bool{
	LayoutDirectory: true,
	LayoutSingle:    true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Library == "" {
		return ErrLibraryEmpty
	}
	if !knownLayouts[c.Layout] {
		return ErrLayoutUnknown
	}
	if c.Relax && c.Strict {
		return ErrRelaxStrict
	}
	return nil
}

// PostOptions returns the entry validation options implied by c.
func (c Config) PostOptions() PostOptions {
	return PostOptions{Lenient: c.Relax, Strict: c.Strict}
}
