package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryHotStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryHotStore()
	defer s.Close()

	env := &Envelope{Subject: "user-1", Payload: json.RawMessage(`{}`), CachedAt: time.Now().UnixMilli()}
	require.NoError(t, s.Set(ctx, env, 10*time.Millisecond))

	got, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, got)

	exists, err := s.Exists(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, exists)

	time.Sleep(20 * time.Millisecond)

	got, err = s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	exists, err = s.Exists(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, exists)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMemoryColdStore_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryColdStore()

	env := &Envelope{Subject: "user-1", Payload: json.RawMessage(`{}`), CachedAt: time.Now().UnixMilli()}
	require.NoError(t, s.Put(ctx, env, 10*time.Millisecond))

	time.Sleep(20 * time.Millisecond)

	got, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	subjects, err := s.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestMemoryColdStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryColdStore()

	first := &Envelope{Subject: "user-1", Payload: json.RawMessage(`{"v":1}`), CachedAt: 1}
	second := &Envelope{Subject: "user-1", Payload: json.RawMessage(`{"v":2}`), CachedAt: 2}
	require.NoError(t, s.Put(ctx, first, time.Hour))
	require.NoError(t, s.Put(ctx, second, time.Hour))

	got, err := s.Get(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"v":2}`, string(got.Payload))
	assert.Equal(t, int64(2), got.CachedAt)
}

func TestMemoryHotStore_CloseIsIdempotent(t *testing.T) {
	s := NewMemoryHotStore()
	s.Close()
	s.Close()
}
