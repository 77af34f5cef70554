// Package account keeps the signed-in user between runs.
package account

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/results-app/internal/models"
)

// ErrNoAccount is returned by Load when nobody is signed in.
var ErrNoAccount = errors.New("not signed in")

// File is the on-disk account record.
type File struct {
	Email     string       `yaml:"email"`
	AuthToken string       `yaml:"authToken"`
	User      *models.User `yaml:"user,omitempty"`
	APIBase   string       `yaml:"apiBase,omitempty"`
	SavedAt   time.Time    `yaml:"savedAt"`
}

// Store reads and writes the account file. The file holds a bearer token and
// is written with mode 0600.
type Store struct {
	path string
}

// NewStore returns a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the account file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the account file.
func (s *Store) Load() (*File, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoAccount
		}
		return nil, fmt.Errorf("read account file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse account file %s: %w", s.path, err)
	}
	if f.AuthToken == "" {
		return nil, ErrNoAccount
	}
	return &f, nil
}

// Save replaces the account file atomically.
func (s *Store) Save(f *File) error {
	if f == nil {
		return errors.New("account file is nil")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create account dir: %w", err)
	}
	raw, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode account file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".account-*.yaml")
	if err != nil {
		return fmt.Errorf("create account file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod account file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write account file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close account file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace account file: %w", err)
	}
	return nil
}

// Clear removes the account file. Clearing twice is fine.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove account file: %w", err)
	}
	return nil
}
