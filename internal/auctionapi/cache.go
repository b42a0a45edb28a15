package auctionapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mclemoreauction/neighbor-letters/internal/pkg/logger"
)

// CachedClient is a read-through Redis cache in front of a Fetcher. Auction
// metadata changes rarely; a short TTL keeps letters current without hitting
// the API on every preview.
type CachedClient struct {
	next Fetcher
	rdb  *redis.Client
	ttl  time.Duration
}

// NewCachedClient wraps next with a Redis cache.
func NewCachedClient(next Fetcher, rdb *redis.Client, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedClient{next: next, rdb: rdb, ttl: ttl}
}

func cacheKey(code string) string { return "auction:" + code }

// GetAuction returns cached details when present, fetching and populating the
// cache otherwise. Cache failures degrade to a direct fetch; Redis being down
// never blocks a lookup.
func (c *CachedClient) GetAuction(ctx context.Context, code string) (*Details, error) {
	key := cacheKey(code)

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var details Details
		if jerr := json.Unmarshal(data, &details); jerr == nil {
			logger.Debug("auctionapi: cache hit", "auction_code", code)
			return &details, nil
		}
		// Unreadable entry: drop it and refetch.
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		logger.Warn("auctionapi: cache read failed", "auction_code", code, "error", err.Error())
	}

	details, err := c.next.GetAuction(ctx, code)
	if err != nil {
		return nil, err
	}

	if data, jerr := json.Marshal(details); jerr == nil {
		if serr := c.rdb.Set(ctx, key, data, c.ttl).Err(); serr != nil {
			logger.Warn("auctionapi: cache write failed", "auction_code", code, "error", serr.Error())
		}
	}
	return details, nil
}

// Invalidate removes a cached auction, forcing the next lookup to refetch.
func (c *CachedClient) Invalidate(ctx context.Context, code string) {
	c.rdb.Del(ctx, cacheKey(code))
}
