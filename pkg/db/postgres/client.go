package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canopy-network/blockgraph/pkg/retry"
	"github.com/canopy-network/blockgraph/pkg/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Querier is the read surface shared by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Client wraps a PostgreSQL connection pool and accounts for every connection it hands out.
type Client struct {
	Logger       *zap.Logger
	Pool         *pgxpool.Pool
	Acquisitions *Acquisitions
}

// PoolConfig defines connection pool settings
type PoolConfig struct {
	URL             string
	MinConns        int32
	MaxConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Component       string // For logging/debugging
}

// PoolConfigFromEnv reads POSTGRES_URL, POSTGRES_MIN_CONNS, POSTGRES_MAX_CONNS and
// POSTGRES_CONN_MAX_LIFETIME.
func PoolConfigFromEnv(component string) PoolConfig {
	cfg := PoolConfig{
		URL:             utils.Env("POSTGRES_URL", "postgres://localhost:5432/postgres"),
		MinConns:        int32(utils.EnvInt("POSTGRES_MIN_CONNS", 2)),
		MaxConns:        int32(utils.EnvInt("POSTGRES_MAX_CONNS", 20)),
		ConnMaxLifetime: utils.EnvDuration("POSTGRES_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: 30 * time.Minute,
		Component:       component,
	}
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}
	return cfg
}

// New opens the pool described by poolConf and pings it, retrying with backoff while
// the database is unreachable.
func New(ctx context.Context, logger *zap.Logger, poolConf PoolConfig) (*Client, error) {
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	config, err := pgxpool.ParseConfig(poolConf.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse POSTGRES_URL: %w", err)
	}

	config.MinConns = poolConf.MinConns
	config.MaxConns = poolConf.MaxConns
	config.MaxConnLifetime = poolConf.ConnMaxLifetime
	config.MaxConnIdleTime = poolConf.ConnMaxIdleTime

	client := &Client{
		Logger:       logger,
		Acquisitions: NewAcquisitions(),
	}

	retryErr := retry.WithBackoff(connCtx, retry.DefaultConfig(), logger, "postgres_connection", func() error {
		pool, openErr := pgxpool.NewWithConfig(connCtx, config)
		if openErr != nil {
			return fmt.Errorf("failed to create postgres connection pool: %w", openErr)
		}

		if pingErr := pool.Ping(connCtx); pingErr != nil {
			pool.Close()
			return fmt.Errorf("failed to ping postgres: %w", pingErr)
		}

		client.Pool = pool
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	logger.Info("PostgreSQL connection pool configured",
		zap.String("database", config.ConnConfig.Database),
		zap.String("component", poolConf.Component),
		zap.Int32("min_conns", poolConf.MinConns),
		zap.Int32("max_conns", poolConf.MaxConns),
		zap.Duration("conn_max_lifetime", poolConf.ConnMaxLifetime),
	)

	return client, nil
}

// WithConn acquires one connection from the pool, runs fn with it and releases it
// on every exit path, including a panic inside fn.
func (c *Client) WithConn(ctx context.Context, fn func(Querier) error) error {
	conn, err := c.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}

	release := c.Acquisitions.Track()
	defer func() {
		conn.Release()
		release()
	}()

	return fn(conn)
}

// Ping verifies that a connection can be established.
func (c *Client) Ping(ctx context.Context) error {
	return c.Pool.Ping(ctx)
}

// Close closes the connection pool
func (c *Client) Close() {
	c.Pool.Close()
}

// IsNoRows checks if the error is a "no rows" error
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
