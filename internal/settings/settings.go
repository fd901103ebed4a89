// Package settings persists the user-facing identifier settings: which scheme
// is active, which paths are excluded, and whether new notes get an id.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/starford/vaultid/internal/exclude"
	"github.com/starford/vaultid/internal/scheme"
)

// Settings is an immutable value passed into each core operation.
type Settings struct {
	IDType             string   `json:"idType"`
	ExcludePaths       []string `json:"excludePaths"`
	AutoAssignOnCreate bool     `json:"autoAssignOnCreate"`
}

// Default returns the settings used when nothing is persisted.
func Default() Settings {
	return Settings{
		IDType:             scheme.UUID,
		ExcludePaths:       []string{},
		AutoAssignOnCreate: true,
	}
}

// Validate checks that IDType is registered in reg.
func (s Settings) Validate(reg *scheme.Registry) error {
	if s.IDType != "" && !reg.Has(s.IDType) {
		return &scheme.UnknownSchemeError{Tag: s.IDType}
	}
	return validation.ValidateStruct(&s,
		validation.Field(&s.IDType, validation.Required),
	)
}

// Store loads and saves Settings as a JSON file. Comments and trailing
// commas are accepted on load.
type Store struct {
	path    string
	schemes *scheme.Registry
}

// NewStore creates a Store for the file at path.
func NewStore(path string, reg *scheme.Registry) *Store {
	return &Store{path: path, schemes: reg}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the settings file. A missing file yields Default(); fields
// absent from the file keep their defaults.
func (s *Store) Load() (Settings, error) {
	st := Default()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: read %s: %w", s.path, err)
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Settings{}, fmt.Errorf("settings: parse %s: %w", s.path, err)
	}
	if err := json.Unmarshal(standardized, &st); err != nil {
		return Settings{}, fmt.Errorf("settings: decode %s: %w", s.path, err)
	}
	st.ExcludePaths = exclude.Normalize(st.ExcludePaths)
	if err := st.Validate(s.schemes); err != nil {
		return Settings{}, fmt.Errorf("settings: %s: %w", s.path, err)
	}
	return st, nil
}

// Save validates st, normalizes its exclusions and writes it atomically.
func (s *Store) Save(st Settings) error {
	st.ExcludePaths = exclude.Normalize(st.ExcludePaths)
	if err := st.Validate(s.schemes); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings: mkdir: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.path, err)
	}
	return nil
}
