package cache

import (
	"fmt"
	"time"

	"soundrise/internal/config"
	"soundrise/internal/util"
)

// InteractionCache is the fast-path store for toggle state and running
// counters. Values here are hints with bounded staleness; the durable store
// stays authoritative and reconciliation corrects drift. Every operation
// degrades to a miss (never an error the caller must handle) when Redis is
// down, matching the rest of the app's cache-optional behavior.
type InteractionCache struct {
	redis      *util.RedisClient
	counterTTL time.Duration
	toggleTTL  time.Duration
}

func NewInteractionCache(redis *util.RedisClient, cfg *config.Config) *InteractionCache {
	return &InteractionCache{
		redis:      redis,
		counterTTL: cfg.CounterCacheTTL,
		toggleTTL:  cfg.ToggleStateTTL,
	}
}

func toggleKey(kind, contentID, userID string) string {
	return fmt.Sprintf("toggle:%s:%s:%s", kind, contentID, userID)
}

func counterKey(kind, contentID, field string) string {
	return fmt.Sprintf("counter:%s:%s:%s", kind, contentID, field)
}

func milestoneKey(kind, contentID, field string, milestone int64) string {
	return fmt.Sprintf("milestone:%s:%s:%s:%d", kind, contentID, field, milestone)
}

// GetToggle reads the cached toggle state for a (user, content) pair. The
// second return value reports whether the state was present; absence means
// "unknown, consult the durable store".
func (c *InteractionCache) GetToggle(kind, contentID, userID string) (bool, bool, error) {
	if c.redis == nil {
		return false, false, nil
	}
	val, err := c.redis.Get(toggleKey(kind, contentID, userID))
	if err != nil {
		return false, false, nil
	}
	return val == "1", true, nil
}

// SetToggle writes the toggle state unconditionally (last writer wins)
func (c *InteractionCache) SetToggle(kind, contentID, userID string, on bool) error {
	if c.redis == nil {
		return nil
	}
	val := "0"
	if on {
		val = "1"
	}
	return c.redis.Set(toggleKey(kind, contentID, userID), val, c.toggleTTL)
}

// GetCounter reads a cached counter. Found is false when the key is absent.
func (c *InteractionCache) GetCounter(kind, contentID, field string) (int64, bool, error) {
	if c.redis == nil {
		return 0, false, nil
	}
	return c.redis.GetInt(counterKey(kind, contentID, field))
}

// SetCounter overwrites a cached counter (used to seed from the durable store
// and by reconciliation).
func (c *InteractionCache) SetCounter(kind, contentID, field string, value int64) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Set(counterKey(kind, contentID, field), fmt.Sprintf("%d", value), c.counterTTL)
}

// AdjustCounter atomically applies delta to a cached counter and returns the
// new value.
func (c *InteractionCache) AdjustCounter(kind, contentID, field string, delta int64) (int64, error) {
	if c.redis == nil {
		return 0, fmt.Errorf("cache not available")
	}
	val, err := c.redis.IncrBy(counterKey(kind, contentID, field), delta)
	if err != nil {
		return 0, err
	}
	if c.counterTTL > 0 {
		c.redis.Expire(counterKey(kind, contentID, field), c.counterTTL)
	}
	return val, nil
}

// MarkMilestoneOnce records that a virality milestone was reached. Returns
// true only for the first caller across all instances, so milestone
// notifications fire once even after restarts.
func (c *InteractionCache) MarkMilestoneOnce(kind, contentID, field string, milestone int64, ttl time.Duration) (bool, error) {
	if c.redis == nil {
		return false, fmt.Errorf("cache not available")
	}
	return c.redis.SetNX(milestoneKey(kind, contentID, field, milestone), "1", ttl)
}
