package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists exported documents under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "."
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve export directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &LocalStorage{baseDir: abs}, nil
}

// Save writes data to filename and returns the path written. Relative names
// may not leave the base directory.
func (s *LocalStorage) Save(filename string, data []byte) (string, error) {
	path, err := s.resolve(filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// Path exposes where filename would be written.
func (s *LocalStorage) Path(filename string) (string, error) {
	return s.resolve(filename)
}

func (s *LocalStorage) resolve(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("export file name is required")
	}
	if filepath.IsAbs(filename) {
		return filepath.Clean(filename), nil
	}
	path := filepath.Join(s.baseDir, filename)
	if path != s.baseDir && !strings.HasPrefix(path, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("export file %q escapes %s", filename, s.baseDir)
	}
	return path, nil
}
