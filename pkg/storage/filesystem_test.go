package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveWritesUnderBase(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "exports"))
	require.NoError(t, err)

	path, err := s.Save("2015/results-20151.csv", []byte("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "2015", "results-20151.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(raw))
}

func TestSaveRejectsEscapes(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save("../outside.csv", []byte("x"))
	assert.Error(t, err)
	_, err = s.Save("", []byte("x"))
	assert.Error(t, err)

	abs := filepath.Join(t.TempDir(), "abs.pdf")
	path, err := s.Save(abs, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, abs, path)
}
