// File: internal/config/store.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/notefill/internal/domain"
)

// DefaultConfigPath is where edits are written when no config file was loaded.
const DefaultConfigPath = "~/.notefill/config.yaml"

// Store writes operator edits (roster, bank, location) back to the config
// file the process was started with.
type Store struct {
	v    *viper.Viper
	path string
}

// NewStore binds a store to v. The target is the file v loaded, or
// DefaultConfigPath.
func NewStore(v *viper.Viper) *Store {
	path := v.ConfigFileUsed()
	if path == "" {
		path = DefaultConfigPath
	}
	return &Store{v: v, path: path}
}

// Path returns the expanded target path.
func (s *Store) Path() (string, error) {
	return homedir.Expand(s.path)
}

// SaveIdentities replaces the persisted roster.
func (s *Store) SaveIdentities(ids []domain.Identity) error {
	rows := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, map[string]interface{}{
			"id":        id.ID,
			"name":      id.Name,
			"id_type":   id.IDType,
			"id_number": id.IDNumber,
			"phone":     id.Phone,
		})
	}
	s.v.Set("user_infos", rows)
	return s.write()
}

// SaveBank switches the active bank profile.
func (s *Store) SaveBank(name string) error {
	s.v.Set("bank", name)
	return s.write()
}

// SaveQuantity updates the per-identity quantity.
func (s *Store) SaveQuantity(n int) error {
	if n <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", n)
	}
	s.v.Set("quantity", n)
	return s.write()
}

// SaveLocation persists spec under exchange_location. The half not used by
// spec's kind is left as is so switching banks keeps both.
func (s *Store) SaveLocation(spec domain.LocationSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	s.v.Set("exchange_location.name", spec.Name())
	switch spec.Kind {
	case domain.LocationCascade:
		s.v.Set("exchange_location.cascade_path", spec.CascadePath)
	case domain.LocationIndependent:
		s.v.Set("exchange_location.icbc_location", map[string]interface{}{
			"province": spec.Independent.Province,
			"city":     spec.Independent.City,
			"district": spec.Independent.District,
			"outlet":   spec.Independent.Outlet,
		})
	}
	return s.write()
}

func (s *Store) write() error {
	path, err := s.Path()
	if err != nil {
		return fmt.Errorf("expanding config path %q: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := s.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
