package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// exerciseStore checks the behavior every Store must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, "qs_thread_v1")
	require.ErrorIs(t, err, ErrNotFound)

	value := []byte(`[{"role":"user","content":"hi"}]`)
	require.NoError(t, s.Save(ctx, "qs_thread_v1", value))

	got, err := s.Load(ctx, "qs_thread_v1")
	require.NoError(t, err)
	require.Equal(t, value, got)

	require.NoError(t, s.Save(ctx, "qs_thread_v1", []byte(`[]`)))
	got, err = s.Load(ctx, "qs_thread_v1")
	require.NoError(t, err)
	require.Equal(t, []byte(`[]`), got)

	require.Error(t, s.Save(ctx, " ", value))
	_, err = s.Load(ctx, "")
	require.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, s.Save(context.Background(), "k", value))
	value[0] = 'z'

	got, err := s.Load(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, "abc", string(got))
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "threads"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_KeyCannotEscapeDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "../../escape", []byte("x")))

	_, err = os.Stat(filepath.Join(dir, "escape.json"))
	require.NoError(t, err)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "k", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "k.json", entries[0].Name())
}

func TestNewFileStore_EmptyDir(t *testing.T) {
	_, err := NewFileStore(" ")
	require.ErrorContains(t, err, "must not be empty")
}
