package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"sigclause/internal/disclaimer/metrics"
	"sigclause/internal/disclaimer/models"
	id "sigclause/pkg/domain"
	"sigclause/pkg/platform/circuit"
)

// CachedLoader fronts a RuleLoader with a Redis read-through cache keyed by
// organization. Caching is strictly best-effort: a cache read or write error
// falls back to the underlying store, and an underlying store error is
// never masked by stale cache content — a disclaimer resolution either sees
// fresh-enough rules or fails loudly.
//
// A circuit breaker guards the Redis round trips so a down cache degrades
// to straight store reads instead of adding a timeout to every resolution.
type CachedLoader struct {
	next    RuleLoader
	redis   *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	breaker *circuit.Breaker
	probes  atomic.Uint64
}

// probeInterval is how often an open circuit lets a request through to test
// whether Redis has recovered.
const probeInterval = 16

func NewCachedLoader(next RuleLoader, client *redis.Client, ttl time.Duration, logger *slog.Logger, m *metrics.Metrics) *CachedLoader {
	return &CachedLoader{
		next:    next,
		redis:   client,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
		breaker: circuit.New("rule-cache"),
	}
}

// cacheEntry is the cached shape: both reads (own org + cascaded parent)
// are cached together because the parent's cascaded set is part of what the
// client organization resolves against.
type cacheEntry struct {
	Records []models.RuleRecord `json:"records"`
}

func (c *CachedLoader) LoadForResolution(ctx context.Context, orgID id.OrganizationID, mspParentID *id.OrganizationID) ([]models.RuleRecord, error) {
	key := cacheKey(orgID, mspParentID)

	useCache := c.cacheUsable()
	if useCache {
		if cached, ok := c.get(ctx, key); ok {
			if c.metrics != nil {
				c.metrics.IncrementRuleCacheHits()
			}
			return cached, nil
		}
	}
	if c.metrics != nil {
		c.metrics.IncrementRuleCacheMisses()
	}

	records, err := c.next.LoadForResolution(ctx, orgID, mspParentID)
	if err != nil {
		return nil, err
	}
	if useCache {
		c.set(ctx, key, records)
	}
	return records, nil
}

// Invalidate drops every cached rule set the organization's rules feed
// into: its own entries, and client-org entries that cascade from it when
// the organization acts as an MSP parent. Called on rule or template
// writes. Invalidation runs even with the breaker open: deleting keys on a
// flaky cache is still worth attempting, since a stale hit after recovery
// would serve outdated rules.
func (c *CachedLoader) Invalidate(ctx context.Context, orgID id.OrganizationID) {
	patterns := []string{
		"disclaimer:rules:" + orgID.String() + "*",
		"disclaimer:rules:*:" + orgID.String(),
	}
	for _, pattern := range patterns {
		iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
				c.logger.WarnContext(ctx, "rule cache invalidation failed",
					"organization_id", orgID.String(),
					"error", err.Error(),
				)
				return
			}
		}
		if err := iter.Err(); err != nil {
			c.logger.WarnContext(ctx, "rule cache scan failed",
				"organization_id", orgID.String(),
				"error", err.Error(),
			)
		}
	}
}

func (c *CachedLoader) get(ctx context.Context, key string) ([]models.RuleRecord, bool) {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.recordFailure(ctx, err)
			c.logger.WarnContext(ctx, "rule cache read failed", "key", key, "error", err.Error())
			return nil, false
		}
		c.recordSuccess(ctx)
		return nil, false
	}
	c.recordSuccess(ctx)

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.WarnContext(ctx, "rule cache entry corrupt, ignoring", "key", key)
		return nil, false
	}
	return entry.Records, true
}

func (c *CachedLoader) set(ctx context.Context, key string, records []models.RuleRecord) {
	raw, err := json.Marshal(cacheEntry{Records: records})
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.recordFailure(ctx, err)
		c.logger.WarnContext(ctx, "rule cache write failed", "key", key, "error", err.Error())
		return
	}
	c.recordSuccess(ctx)
}

// cacheUsable decides whether this load should touch Redis: always when the
// circuit is closed, and every probeInterval-th call while it is open so
// recovery can be observed and the circuit re-closed.
func (c *CachedLoader) cacheUsable() bool {
	if !c.breaker.IsOpen() {
		return true
	}
	return c.probes.Add(1)%probeInterval == 0
}

func (c *CachedLoader) recordFailure(ctx context.Context, err error) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "rule cache circuit opened, bypassing cache",
			"breaker", c.breaker.Name(),
			"error", err.Error(),
		)
	}
}

func (c *CachedLoader) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "rule cache circuit closed, cache back in use",
			"breaker", c.breaker.Name(),
		)
	}
}

func cacheKey(orgID id.OrganizationID, mspParentID *id.OrganizationID) string {
	key := "disclaimer:rules:" + orgID.String()
	if mspParentID != nil {
		key += ":" + mspParentID.String()
	}
	return key
}
