// Package cache implements the two-tier analytics cache: a hot tier with
// short TTLs backed by Redis and a cold tier with long retention backed by
// DynamoDB. Reads check hot first, fall back to cold, and promote cold hits
// back into the hot tier. Writes land in both tiers concurrently.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"devinsights-backend/pkg/utils"
)

// Tier identifies which cache tier served a read.
type Tier string

const (
	TierHot  Tier = "hot"
	TierCold Tier = "cold"
)

// Envelope is the record stored in both tiers. Payload is kept opaque so
// the cache never depends on the shape of what it stores.
type Envelope struct {
	Subject  string          `json:"subject" dynamodbav:"subject"`
	Payload  json.RawMessage `json:"payload" dynamodbav:"payload"`
	CachedAt int64           `json:"cached_at" dynamodbav:"cachedAt"` // epoch millis
}

// Entry is a cache read result returned to callers.
type Entry struct {
	Subject         string          `json:"subject"`
	Payload         json.RawMessage `json:"payload"`
	CachedAt        int64           `json:"cached_at"`
	CacheAgeSeconds int64           `json:"cache_age_seconds"`
	FromCache       bool            `json:"from_cache"`
	CacheTier       Tier            `json:"cache_tier"`
	PromotedToHot   bool            `json:"promoted_to_hot"`
}

// SaveResult reports the outcome of a dual-tier write.
type SaveResult struct {
	Success   bool `json:"success"`
	HotSaved  bool `json:"hot_saved"`
	ColdSaved bool `json:"cold_saved"`
}

// ClearResult reports the outcome of a dual-tier invalidation.
type ClearResult struct {
	Success     bool `json:"success"`
	HotCleared  bool `json:"hot_cleared"`
	ColdCleared bool `json:"cold_cleared"`
}

// SubjectRef names one cached subject and when it was last written.
type SubjectRef struct {
	Subject     string `json:"subject"`
	LastUpdated int64  `json:"last_updated"` // epoch seconds
}

// TierStats describes one tier for the stats endpoint.
type TierStats struct {
	Available bool         `json:"available"`
	KeyCount  int          `json:"key_count"`
	Subjects  []SubjectRef `json:"subjects,omitempty"`
	TTL       string       `json:"ttl"`
}

// Stats describes both tiers plus a short architecture summary.
type Stats struct {
	Hot          TierStats `json:"hot"`
	Cold         TierStats `json:"cold"`
	Architecture string    `json:"architecture"`
}

// HotStore is the fast, short-lived tier. Implementations return errors;
// the orchestrator decides how failures degrade.
type HotStore interface {
	Get(ctx context.Context, subject string) (*Envelope, error)
	Set(ctx context.Context, env *Envelope, ttl time.Duration) error
	Delete(ctx context.Context, subject string) error
	Exists(ctx context.Context, subject string) (bool, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// ColdStore is the durable, long-retention tier.
type ColdStore interface {
	Get(ctx context.Context, subject string) (*Envelope, error)
	Put(ctx context.Context, env *Envelope, ttl time.Duration) error
	Delete(ctx context.Context, subject string) error
	ListSubjects(ctx context.Context) ([]SubjectRef, error)
	Ping(ctx context.Context) error
}

// MetricsRecorder receives cache outcome counters. The CloudWatch
// implementation lives in infrastructure/observability.
type MetricsRecorder interface {
	CacheHit(tier Tier)
	CacheMiss()
	CachePromotion(success bool)
}

// NopMetrics discards all counters.
type NopMetrics struct{}

func (NopMetrics) CacheHit(Tier)       {}
func (NopMetrics) CacheMiss()          {}
func (NopMetrics) CachePromotion(bool) {}

func entryFromEnvelope(env *Envelope, tier Tier, now time.Time) *Entry {
	return &Entry{
		Subject:         env.Subject,
		Payload:         env.Payload,
		CachedAt:        env.CachedAt,
		CacheAgeSeconds: utils.AgeSeconds(env.CachedAt, now),
		FromCache:       true,
		CacheTier:       tier,
	}
}
