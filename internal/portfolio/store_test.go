package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "portfolio")
	s := NewStore(path)

	list, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.FileExists(t, path)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio")
	s := NewStore(path)

	require.NoError(t, s.Save([]string{"VOD", "BP.", "BT.A"}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "VOD\nBP.\nBT.A\n", string(raw))

	list, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"VOD", "BP.", "BT.A"}, list)
}

func TestLoad_CRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio")
	require.NoError(t, os.WriteFile(path, []byte("VOD\r\nBP."), 0o644))

	list, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"VOD", "BP."}, list)
}

func TestAddRemove(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "portfolio"))

	_, err := s.Add("VOD")
	require.NoError(t, err)
	_, err = s.Add("BP.")
	require.NoError(t, err)
	list, err := s.Add("VOD")
	require.NoError(t, err)
	assert.Equal(t, []string{"VOD", "BP."}, list)

	list, err = s.Remove("VOD")
	require.NoError(t, err)
	assert.Equal(t, []string{"BP."}, list)

	list, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"BP."}, list)
}
