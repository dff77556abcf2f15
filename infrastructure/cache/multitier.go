package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MultiTierCache orchestrates reads and writes across the hot and cold
// tiers. The cache is strictly best-effort: a failing tier degrades to a
// miss and is logged, never surfaced to callers as an error.
type MultiTierCache struct {
	hot     HotStore
	cold    ColdStore
	hotTTL  time.Duration
	coldTTL time.Duration
	logger  *zap.Logger
	metrics MetricsRecorder
}

// NewMultiTierCache creates a MultiTierCache. A nil metrics recorder
// defaults to a no-op.
func NewMultiTierCache(hot HotStore, cold ColdStore, hotTTL, coldTTL time.Duration, logger *zap.Logger, metrics MetricsRecorder) *MultiTierCache {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &MultiTierCache{
		hot:     hot,
		cold:    cold,
		hotTTL:  hotTTL,
		coldTTL: coldTTL,
		logger:  logger,
		metrics: metrics,
	}
}

// GetAnalytics looks up the cached dashboard for a subject. The hot tier
// is consulted first, then the cold tier. A cold hit is promoted back into
// the hot tier before returning; the promotion outcome is reported on the
// entry but a failed promotion does not fail the read. A nil entry means
// miss.
func (c *MultiTierCache) GetAnalytics(ctx context.Context, subject string) *Entry {
	now := time.Now()

	env, err := c.hot.Get(ctx, subject)
	if err != nil {
		c.logger.Warn("hot tier read failed, falling through to cold",
			zap.String("subject", subject),
			zap.Error(err),
		)
	} else if env != nil {
		c.metrics.CacheHit(TierHot)
		return entryFromEnvelope(env, TierHot, now)
	}

	env, err = c.cold.Get(ctx, subject)
	if err != nil {
		c.logger.Warn("cold tier read failed, treating as miss",
			zap.String("subject", subject),
			zap.Error(err),
		)
		c.metrics.CacheMiss()
		return nil
	}
	if env == nil {
		c.metrics.CacheMiss()
		return nil
	}

	c.metrics.CacheHit(TierCold)
	entry := entryFromEnvelope(env, TierCold, now)

	if err := c.hot.Set(ctx, env, c.hotTTL); err != nil {
		c.logger.Warn("promotion to hot tier failed",
			zap.String("subject", subject),
			zap.Error(err),
		)
		c.metrics.CachePromotion(false)
	} else {
		entry.PromotedToHot = true
		c.metrics.CachePromotion(true)
	}

	return entry
}

// SaveAnalytics writes a payload to both tiers concurrently and waits for
// both outcomes. Success requires both writes to land; a partial write is
// reported per tier so callers can decide whether to care.
func (c *MultiTierCache) SaveAnalytics(ctx context.Context, subject string, payload json.RawMessage) SaveResult {
	env := &Envelope{
		Subject:  subject,
		Payload:  payload,
		CachedAt: time.Now().UnixMilli(),
	}

	var result SaveResult
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := c.hot.Set(ctx, env, c.hotTTL); err != nil {
			c.logger.Warn("hot tier write failed",
				zap.String("subject", subject),
				zap.Error(err),
			)
			return
		}
		result.HotSaved = true
	}()

	go func() {
		defer wg.Done()
		if err := c.cold.Put(ctx, env, c.coldTTL); err != nil {
			c.logger.Warn("cold tier write failed",
				zap.String("subject", subject),
				zap.Error(err),
			)
			return
		}
		result.ColdSaved = true
	}()

	wg.Wait()
	result.Success = result.HotSaved && result.ColdSaved
	return result
}

// ClearAnalytics removes a subject's entry from both tiers concurrently.
func (c *MultiTierCache) ClearAnalytics(ctx context.Context, subject string) ClearResult {
	var result ClearResult
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := c.hot.Delete(ctx, subject); err != nil {
			c.logger.Warn("hot tier delete failed",
				zap.String("subject", subject),
				zap.Error(err),
			)
			return
		}
		result.HotCleared = true
	}()

	go func() {
		defer wg.Done()
		if err := c.cold.Delete(ctx, subject); err != nil {
			c.logger.Warn("cold tier delete failed",
				zap.String("subject", subject),
				zap.Error(err),
			)
			return
		}
		result.ColdCleared = true
	}()

	wg.Wait()
	result.Success = result.HotCleared && result.ColdCleared
	return result
}

// Stats gathers a snapshot of both tiers concurrently. A tier that cannot
// be reached is reported as unavailable rather than failing the call.
func (c *MultiTierCache) Stats(ctx context.Context) Stats {
	stats := Stats{
		Hot:  TierStats{TTL: c.hotTTL.String()},
		Cold: TierStats{TTL: c.coldTTL.String()},
		Architecture: fmt.Sprintf(
			"hot tier (%s TTL) backed by cold tier (%s retention); reads promote cold hits, writes land in both",
			c.hotTTL, c.coldTTL,
		),
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, err := c.hot.Count(ctx)
		if err != nil {
			c.logger.Warn("hot tier stats failed", zap.Error(err))
			return
		}
		stats.Hot.Available = true
		stats.Hot.KeyCount = count
	}()

	go func() {
		defer wg.Done()
		subjects, err := c.cold.ListSubjects(ctx)
		if err != nil {
			c.logger.Warn("cold tier stats failed", zap.Error(err))
			return
		}
		stats.Cold.Available = true
		stats.Cold.KeyCount = len(subjects)
		stats.Cold.Subjects = subjects
	}()

	wg.Wait()
	return stats
}
