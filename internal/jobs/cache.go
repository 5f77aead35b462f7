package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisCachePrefix = "talent-intake:jobs:"

type cacheEntry struct {
	jobs      []Job
	expiresAt time.Time
}

// CachedSource wraps a source with an in-memory cache and an optional Redis
// second tier. A non-positive TTL disables caching entirely.
type CachedSource struct {
	next   Source
	ttl    time.Duration
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
	l1 map[string]cacheEntry
}

// NewCachedSource wraps next. rdb may be nil.
func NewCachedSource(next Source, ttl time.Duration, rdb *redis.Client, log *zap.Logger) *CachedSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedSource{
		next:   next,
		ttl:    ttl,
		rdb:    rdb,
		logger: log,
		now:    time.Now,
		l1:     make(map[string]cacheEntry),
	}
}

func (c *CachedSource) Jobs(ctx context.Context, tenantID string) ([]Job, error) {
	if c.ttl <= 0 {
		return c.next.Jobs(ctx, tenantID)
	}

	if list, ok := c.getL1(tenantID); ok {
		return list, nil
	}
	if list, ok := c.getL2(ctx, tenantID); ok {
		c.setL1(tenantID, list)
		return copyJobs(list), nil
	}

	list, err := c.next.Jobs(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	c.setL1(tenantID, list)
	c.setL2(ctx, tenantID, list)
	return copyJobs(list), nil
}

func (c *CachedSource) getL1(tenantID string) ([]Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.l1[tenantID]
	if !ok || c.now().After(entry.expiresAt) {
		delete(c.l1, tenantID)
		return nil, false
	}
	return copyJobs(entry.jobs), true
}

func (c *CachedSource) setL1(tenantID string, list []Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.l1[tenantID] = cacheEntry{jobs: copyJobs(list), expiresAt: c.now().Add(c.ttl)}
}

func (c *CachedSource) getL2(ctx context.Context, tenantID string) ([]Job, bool) {
	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, redisCachePrefix+tenantID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("job cache L2 read failed", zap.String("tenant_id", tenantID), zap.Error(err))
		}
		return nil, false
	}
	var list []Job
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, false
	}
	return list, true
}

func (c *CachedSource) setL2(ctx context.Context, tenantID string, list []Job) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, redisCachePrefix+tenantID, data, c.ttl).Err(); err != nil {
		c.logger.Debug("job cache L2 write failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}

func copyJobs(in []Job) []Job {
	out := make([]Job, len(in))
	for i, j := range in {
		j.RequiredSkills = append([]string(nil), j.RequiredSkills...)
		j.NiceToHave = append([]string(nil), j.NiceToHave...)
		out[i] = j
	}
	return out
}
