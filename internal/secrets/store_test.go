package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)

	_, err = s.Get("analysis")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put("Analysis", "  tok-123  "))
	got, err := s.Get("analysis")
	require.NoError(t, err)
	require.Equal(t, "tok-123", got)

	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	require.NotContains(t, string(raw), "tok-123")

	info, err := os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Delete("analysis"))
	_, err = s.Get("analysis")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.Delete("analysis"))
}

func TestStoreRejectsBlank(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.Error(t, s.Put("", "x"))
	require.Error(t, s.Put("analysis", "   "))
	_, err = s.Get(" ")
	require.Error(t, err)
}

func TestStoreCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(`{"tokens":{"analysis":"AAAA"}}`), 0o600))
	_, err = s.Get("analysis")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
