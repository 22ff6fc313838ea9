package graph

import (
	"context"
)

type cachedClient struct {
	Client
	cache HeightCache
}

// WithHeightCache wraps c so GetBlockHeight reads through cache. Lookups that fail
// are never cached.
func WithHeightCache(c Client, cache HeightCache) Client {
	return &cachedClient{Client: c, cache: cache}
}

func (c *cachedClient) GetBlockHeight(ctx context.Context, blockHash string) (int64, error) {
	if height, ok := c.cache.GetBlockHeight(ctx, blockHash); ok {
		return height, nil
	}

	height, err := c.Client.GetBlockHeight(ctx, blockHash)
	if err != nil {
		return 0, err
	}

	c.cache.SetBlockHeight(ctx, blockHash, height)
	return height, nil
}
