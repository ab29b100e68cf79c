package listingstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"listing-workers/internal/common/logger"
	"listing-workers/internal/common/metrics"
	"listing-workers/internal/models"
)

// CachedSource keeps the last snapshot of another Source in Redis for ttl.
// Redis problems are logged and the underlying source is used instead, so
// the cache never turns a working source into a failing one.
type CachedSource struct {
	next   Source
	redis  redis.Cmdable
	key    string
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedSource(next Source, client redis.Cmdable, key string, ttl time.Duration, log logger.Logger) *CachedSource {
	return &CachedSource{
		next:   next,
		redis:  client,
		key:    key,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"cacheKey": key}),
	}
}

func (c *CachedSource) GetListings(ctx context.Context) ([]models.Listing, error) {
	if listings, ok := c.lookup(ctx); ok {
		return listings, nil
	}

	listings, err := c.next.GetListings(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(listings)
	if err != nil {
		c.logger.Warn("failed to encode listing snapshot", map[string]interface{}{"error": err})
		return listings, nil
	}
	if err := c.redis.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache listing snapshot", map[string]interface{}{"error": err})
	}

	return listings, nil
}

func (c *CachedSource) lookup(ctx context.Context) ([]models.Listing, bool) {
	data, err := c.redis.Get(ctx, c.key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.ListingCacheRequests.WithLabelValues("miss").Inc()
		return nil, false
	case err != nil:
		metrics.ListingCacheRequests.WithLabelValues("error").Inc()
		c.logger.Warn("listing cache unavailable", map[string]interface{}{"error": err})
		return nil, false
	}

	var listings []models.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		metrics.ListingCacheRequests.WithLabelValues("error").Inc()
		c.logger.Warn("discarding corrupt listing snapshot", map[string]interface{}{"error": err})
		return nil, false
	}

	metrics.ListingCacheRequests.WithLabelValues("hit").Inc()
	return listings, true
}

// FindListing always asks the underlying source.
func (c *CachedSource) FindListing(ctx context.Context, id uuid.UUID) (models.Listing, error) {
	return c.next.FindListing(ctx, id)
}
