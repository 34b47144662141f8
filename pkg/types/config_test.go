package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty library returns ErrLibraryEmpty",
			config:  Config{Library: "", Layout: LayoutDirectory},
			wantErr: ErrLibraryEmpty,
		},
		{
			name:    "unknown layout returns ErrLayoutUnknown",
			config:  Config{Library: "/tmp/lib", Layout: "zip"},
			wantErr: ErrLayoutUnknown,
		},
		{
			name:    "relax and strict together",
			config:  Config{Library: "/tmp/lib", Layout: LayoutSingle, Relax: true, Strict: true},
			wantErr: ErrRelaxStrict,
		},
		{
			name:   "valid directory config",
			config: Config{Library: "/tmp/lib", Layout: LayoutDirectory},
		},
		{
			name:   "valid single unit config without catalog",
			config: Config{Library: "/tmp/lib.shelf.yaml", Layout: LayoutSingle, Strict: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigPostOptions(t *testing.T) {
	assert.Equal(t, PostOptions{Lenient: true}, Config{Relax: true}.PostOptions())
	assert.Equal(t, PostOptions{Strict: true}, Config{Strict: true}.PostOptions())
}
