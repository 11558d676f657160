package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "token.json")

	s := NewFile(path)
	found, _, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "token", "12345678"))
	require.NoError(t, s.Set(ctx, "count", 3))
	require.NoError(t, s.Close())

	reopened := NewFile(path)
	token, err := Value(ctx, reopened, "token", "")
	require.NoError(t, err)
	assert.Equal(t, "12345678", token)

	count, err := Value(ctx, reopened, "count", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestFileStoreCorrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewFile(path)
	_, _, err := s.Get(ctx, "token")
	assert.Error(t, err)
}

func TestFileStoreEmptyFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s := NewFile(path)
	found, _, err := s.Get(ctx, "token")
	assert.NoError(t, err)
	assert.False(t, found)
}
