package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	defer s.Close()

	found, val, err := s.Get(ctx, "token")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)

	assert.NoError(t, s.Set(ctx, "token", "abc"))
	found, val, err = s.Get(ctx, "token")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", val)

	assert.NoError(t, s.Set(ctx, "token", "def"))
	token, err := Value(ctx, s, "token", "")
	assert.NoError(t, err)
	assert.Equal(t, "def", token)
}

func TestValueDefault(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	token, err := Value(ctx, s, "missing", "fallback")
	assert.NoError(t, err)
	assert.Equal(t, "fallback", token)
}

func TestValueTypeMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	assert.NoError(t, s.Set(ctx, "token", map[string]string{"a": "b"}))

	_, err := Value(ctx, s, "token", 0)
	assert.Error(t, err)
}
