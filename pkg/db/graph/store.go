package graph

import (
	"context"
	"errors"

	graphmodels "github.com/canopy-network/blockgraph/pkg/db/models/graph"
	"github.com/canopy-network/blockgraph/pkg/db/postgres"
	"go.uber.org/zap"
)

// ErrBlockNotFound is returned when a block hash has no row in the blocks table.
var ErrBlockNotFound = errors.New("block not found")

// Store hands out request-scoped clients. The client passed to fn must not be used
// after fn returns.
type Store interface {
	WithClient(ctx context.Context, fn func(Client) error) error
}

// Client is the read API over the block DAG.
type Client interface {
	GetBlocksAndEdgesAndHeightGroups(ctx context.Context, startHeight, endHeight int64) (*graphmodels.BlocksAndEdgesAndHeightGroups, error)
	GetMaxHeight(ctx context.Context) (int64, error)
	GetBlockHeight(ctx context.Context, blockHash string) (int64, error)
	GetBlockHashesByIDs(ctx context.Context, blockIDs []int64) (map[int64]string, error)
}

// HeightCache remembers block heights by hash. Misses are reported with ok == false.
type HeightCache interface {
	GetBlockHeight(ctx context.Context, blockHash string) (height int64, ok bool)
	SetBlockHeight(ctx context.Context, blockHash string, height int64)
}

// DB is the Postgres backed Store.
type DB struct {
	Client *postgres.Client
	Logger *zap.Logger
	cache  HeightCache
}

// New returns a Store over client. cache may be nil.
func New(client *postgres.Client, logger *zap.Logger, cache HeightCache) *DB {
	return &DB{
		Client: client,
		Logger: logger,
		cache:  cache,
	}
}

// WithClient acquires one pooled connection for the duration of fn.
func (db *DB) WithClient(ctx context.Context, fn func(Client) error) error {
	return db.Client.WithConn(ctx, func(q postgres.Querier) error {
		var c Client = &conn{q: q}
		if db.cache != nil {
			c = WithHeightCache(c, db.cache)
		}
		return fn(c)
	})
}
