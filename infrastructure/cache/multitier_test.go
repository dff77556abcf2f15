package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errTierDown = errors.New("tier unavailable")

// faultyHot wraps a HotStore and fails selected operations.
type faultyHot struct {
	HotStore
	failGet    bool
	failSet    bool
	failDelete bool
}

func (f *faultyHot) Get(ctx context.Context, subject string) (*Envelope, error) {
	if f.failGet {
		return nil, errTierDown
	}
	return f.HotStore.Get(ctx, subject)
}

func (f *faultyHot) Set(ctx context.Context, env *Envelope, ttl time.Duration) error {
	if f.failSet {
		return errTierDown
	}
	return f.HotStore.Set(ctx, env, ttl)
}

func (f *faultyHot) Delete(ctx context.Context, subject string) error {
	if f.failDelete {
		return errTierDown
	}
	return f.HotStore.Delete(ctx, subject)
}

// faultyCold wraps a ColdStore and fails selected operations.
type faultyCold struct {
	ColdStore
	failGet    bool
	failPut    bool
	failDelete bool
	failList   bool
}

func (f *faultyCold) ListSubjects(ctx context.Context) ([]SubjectRef, error) {
	if f.failList {
		return nil, errTierDown
	}
	return f.ColdStore.ListSubjects(ctx)
}

func (f *faultyCold) Get(ctx context.Context, subject string) (*Envelope, error) {
	if f.failGet {
		return nil, errTierDown
	}
	return f.ColdStore.Get(ctx, subject)
}

func (f *faultyCold) Put(ctx context.Context, env *Envelope, ttl time.Duration) error {
	if f.failPut {
		return errTierDown
	}
	return f.ColdStore.Put(ctx, env, ttl)
}

func (f *faultyCold) Delete(ctx context.Context, subject string) error {
	if f.failDelete {
		return errTierDown
	}
	return f.ColdStore.Delete(ctx, subject)
}

func newTestCache(hot HotStore, cold ColdStore) *MultiTierCache {
	return NewMultiTierCache(hot, cold, time.Hour, 30*24*time.Hour, zap.NewNop(), nil)
}

func TestGetAnalytics_HotHit(t *testing.T) {
	ctx := context.Background()
	hot := NewMemoryHotStore()
	defer hot.Close()
	cold := NewMemoryColdStore()
	c := newTestCache(hot, cold)

	payload := json.RawMessage(`{"score":42}`)
	result := c.SaveAnalytics(ctx, "user-1", payload)
	require.True(t, result.Success)

	entry := c.GetAnalytics(ctx, "user-1")
	require.NotNil(t, entry)
	assert.Equal(t, TierHot, entry.CacheTier)
	assert.True(t, entry.FromCache)
	assert.False(t, entry.PromotedToHot)
	assert.JSONEq(t, `{"score":42}`, string(entry.Payload))
}

func TestGetAnalytics_ColdHitPromotes(t *testing.T) {
	ctx := context.Background()
	hot := NewMemoryHotStore()
	defer hot.Close()
	cold := NewMemoryColdStore()
	c := newTestCache(hot, cold)

	result := c.SaveAnalytics(ctx, "user-1", json.RawMessage(`{"score":42}`))
	require.True(t, result.Success)

	// Evict from hot so the next read has to come from cold.
	require.NoError(t, hot.Delete(ctx, "user-1"))

	entry := c.GetAnalytics(ctx, "user-1")
	require.NotNil(t, entry)
	assert.Equal(t, TierCold, entry.CacheTier)
	assert.True(t, entry.PromotedToHot)

	// The promotion landed: the following read is a hot hit.
	entry = c.GetAnalytics(ctx, "user-1")
	require.NotNil(t, entry)
	assert.Equal(t, TierHot, entry.CacheTier)
}

func TestGetAnalytics_Miss(t *testing.T) {
	hot := NewMemoryHotStore()
	defer hot.Close()
	c := newTestCache(hot, NewMemoryColdStore())

	assert.Nil(t, c.GetAnalytics(context.Background(), "nobody"))
}

func TestGetAnalytics_HotFailureFallsThroughToCold(t *testing.T) {
	ctx := context.Background()
	hot := NewMemoryHotStore()
	defer hot.Close()
	cold := NewMemoryColdStore()
	c := newTestCache(&faultyHot{HotStore: hot, failGet: true}, cold)

	result := c.SaveAnalytics(ctx, "user-1", json.RawMessage(`{"a":1}`))
	require.True(t, result.Success)

	entry := c.GetAnalytics(ctx, "user-1")
	require.NotNil(t, entry)
	assert.Equal(t, TierCold, entry.CacheTier)
}

func TestGetAnalytics_ColdFailureDegradesToMiss(t *testing.T) {
	hot := NewMemoryHotStore()
	defer hot.Close()
	c := newTestCache(hot, &faultyCold{ColdStore: NewMemoryColdStore(), failGet: true})

	assert.Nil(t, c.GetAnalytics(context.Background(), "user-1"))
}

func TestGetAnalytics_PromotionFailureStillServesEntry(t *testing.T) {
	ctx := context.Background()
	hot := NewMemoryHotStore()
	defer hot.Close()
	cold := NewMemoryColdStore()

	plain := newTestCache(hot, cold)
	require.True(t, plain.SaveAnalytics(ctx, "user-1", json.RawMessage(`{"a":1}`)).Success)
	require.NoError(t, hot.Delete(ctx, "user-1"))

	c := newTestCache(&faultyHot{HotStore: hot, failSet: true}, cold)
	entry := c.GetAnalytics(ctx, "user-1")
	require.NotNil(t, entry)
	assert.Equal(t, TierCold, entry.CacheTier)
	assert.False(t, entry.PromotedToHot)
}

func TestGetAnalytics_CacheAge(t *testing.T) {
	ctx := context.Background()
	hot := NewMemoryHotStore()
	defer hot.Close()
	c := newTestCache(hot, NewMemoryColdStore())

	env := &Envelope{
		Subject:  "user-1",
		Payload:  json.RawMessage(`{}`),
		CachedAt: time.Now().Add(-90 * time.Second).UnixMilli(),
	}
	require.NoError(t, hot.Set(ctx, env, time.Hour))

	entry := c.GetAnalytics(ctx, "user-1")
	require.NotNil(t, entry)
	assert.GreaterOrEqual(t, entry.CacheAgeSeconds, int64(90))
	assert.Less(t, entry.CacheAgeSeconds, int64(95))
}

func TestGetAnalytics_FutureCachedAtClampsToZero(t *testing.T) {
	ctx := context.Background()
	hot := NewMemoryHotStore()
	defer hot.Close()
	c := newTestCache(hot, NewMemoryColdStore())

	env := &Envelope{
		Subject:  "user-1",
		Payload:  json.RawMessage(`{}`),
		CachedAt: time.Now().Add(time.Minute).UnixMilli(),
	}
	require.NoError(t, hot.Set(ctx, env, time.Hour))

	entry := c.GetAnalytics(ctx, "user-1")
	require.NotNil(t, entry)
	assert.Equal(t, int64(0), entry.CacheAgeSeconds)
}

func TestSaveAnalytics_PartialHotFailure(t *testing.T) {
	hot := NewMemoryHotStore()
	defer hot.Close()
	cold := NewMemoryColdStore()
	c := newTestCache(&faultyHot{HotStore: hot, failSet: true}, cold)

	result := c.SaveAnalytics(context.Background(), "user-1", json.RawMessage(`{"a":1}`))
	assert.False(t, result.Success)
	assert.False(t, result.HotSaved)
	assert.True(t, result.ColdSaved)
}

func TestSaveAnalytics_PartialColdFailure(t *testing.T) {
	hot := NewMemoryHotStore()
	defer hot.Close()
	c := newTestCache(hot, &faultyCold{ColdStore: NewMemoryColdStore(), failPut: true})

	result := c.SaveAnalytics(context.Background(), "user-1", json.RawMessage(`{"a":1}`))
	assert.False(t, result.Success)
	assert.True(t, result.HotSaved)
	assert.False(t, result.ColdSaved)
}

func TestClearAnalytics(t *testing.T) {
	ctx := context.Background()
	hot := NewMemoryHotStore()
	defer hot.Close()
	cold := NewMemoryColdStore()
	c := newTestCache(hot, cold)

	require.True(t, c.SaveAnalytics(ctx, "user-1", json.RawMessage(`{"a":1}`)).Success)

	result := c.ClearAnalytics(ctx, "user-1")
	assert.True(t, result.Success)
	assert.True(t, result.HotCleared)
	assert.True(t, result.ColdCleared)
	assert.Nil(t, c.GetAnalytics(ctx, "user-1"))
}

func TestClearAnalytics_PartialFailure(t *testing.T) {
	ctx := context.Background()
	hot := NewMemoryHotStore()
	defer hot.Close()
	cold := NewMemoryColdStore()
	c := newTestCache(hot, &faultyCold{ColdStore: cold, failDelete: true})

	require.True(t, c.SaveAnalytics(ctx, "user-1", json.RawMessage(`{"a":1}`)).Success)

	result := c.ClearAnalytics(ctx, "user-1")
	assert.False(t, result.Success)
	assert.True(t, result.HotCleared)
	assert.False(t, result.ColdCleared)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	hot := NewMemoryHotStore()
	defer hot.Close()
	cold := NewMemoryColdStore()
	c := newTestCache(hot, cold)

	require.True(t, c.SaveAnalytics(ctx, "user-1", json.RawMessage(`{"a":1}`)).Success)
	require.True(t, c.SaveAnalytics(ctx, "user-2", json.RawMessage(`{"b":2}`)).Success)

	stats := c.Stats(ctx)
	assert.True(t, stats.Hot.Available)
	assert.Equal(t, 2, stats.Hot.KeyCount)
	assert.True(t, stats.Cold.Available)
	assert.Equal(t, 2, stats.Cold.KeyCount)
	var names []string
	for _, ref := range stats.Cold.Subjects {
		names = append(names, ref.Subject)
		assert.Positive(t, ref.LastUpdated)
	}
	assert.ElementsMatch(t, []string{"user-1", "user-2"}, names)
	assert.Contains(t, stats.Architecture, "hot tier")
}

func TestStats_UnavailableTier(t *testing.T) {
	hot := NewMemoryHotStore()
	defer hot.Close()
	c := newTestCache(hot, &faultyCold{ColdStore: NewMemoryColdStore(), failList: true})

	stats := c.Stats(context.Background())
	assert.True(t, stats.Hot.Available)
	assert.False(t, stats.Cold.Available)
}
