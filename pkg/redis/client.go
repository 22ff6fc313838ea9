package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/canopy-network/blockgraph/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultHeightTTL bounds how long an unused height entry is kept.
	DefaultHeightTTL = 24 * time.Hour

	heightKeyPrefix = "blockgraph:height:"
)

// Client is a Redis backed block height cache. It satisfies graph.HeightCache.
// Every Redis error is logged and treated as a miss.
type Client struct {
	client    redis.UniversalClient
	logger    *zap.Logger
	heightTTL time.Duration
}

// NewClient creates a new Redis client using environment variables for configuration.
// Environment variables:
//   - REDIS_HOST: Redis host (default: "localhost")
//   - REDIS_PORT: Redis port (default: "6379")
//   - REDIS_PASSWORD: Redis password (default: "")
//   - REDIS_DB: Redis database number (default: "0")
//   - REDIS_HEIGHT_TTL: lifetime of a cached height (default: 24h)
func NewClient(ctx context.Context, logger *zap.Logger) (*Client, error) {
	host := utils.Env("REDIS_HOST", "localhost")
	port := utils.Env("REDIS_PORT", "6379")
	password := utils.Env("REDIS_PASSWORD", "")
	db := utils.EnvInt("REDIS_DB", 0)
	ttl := utils.EnvDuration("REDIS_HEIGHT_TTL", DefaultHeightTTL)

	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info("Connected to Redis",
		zap.String("addr", addr),
		zap.Int("db", db),
		zap.Duration("heightTTL", ttl))

	return NewWithClient(rdb, logger, ttl), nil
}

// NewWithClient wraps an existing go-redis client.
func NewWithClient(rdb redis.UniversalClient, logger *zap.Logger, heightTTL time.Duration) *Client {
	if heightTTL <= 0 {
		heightTTL = DefaultHeightTTL
	}
	return &Client{
		client:    rdb,
		logger:    logger,
		heightTTL: heightTTL,
	}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Health checks if Redis is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// HeightKey is the key holding the height of blockHash.
func HeightKey(blockHash string) string {
	return heightKeyPrefix + blockHash
}

// GetBlockHeight returns the cached height of blockHash.
func (c *Client) GetBlockHeight(ctx context.Context, blockHash string) (int64, bool) {
	v, err := c.client.Get(ctx, HeightKey(blockHash)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Failed to read cached block height",
				zap.String("blockHash", blockHash),
				zap.Error(err))
		}
		return 0, false
	}

	height, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		c.logger.Warn("Discarding malformed cached block height",
			zap.String("blockHash", blockHash),
			zap.String("value", v))
		return 0, false
	}
	return height, true
}

// SetBlockHeight stores the height of blockHash. Best effort.
func (c *Client) SetBlockHeight(ctx context.Context, blockHash string, height int64) {
	if err := c.client.Set(ctx, HeightKey(blockHash), strconv.FormatInt(height, 10), c.heightTTL).Err(); err != nil {
		c.logger.Warn("Failed to cache block height",
			zap.String("blockHash", blockHash),
			zap.Error(err))
	}
}
