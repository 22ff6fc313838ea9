package query

import (
	"context"
	"fmt"

	"github.com/canopy-network/blockgraph/app/query/types"
	"github.com/canopy-network/blockgraph/pkg/db/graph"
	"github.com/canopy-network/blockgraph/pkg/db/postgres"
	"github.com/canopy-network/blockgraph/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Initialize connects the API to its dependencies. Configuration must already be
// validated by types.LoadConfig.
func Initialize(ctx context.Context, cfg types.Config, logger *zap.Logger) (*types.App, error) {
	pg, err := postgres.New(ctx, logger, postgres.PoolConfigFromEnv("query"))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	deps := []types.Dependency{{
		Name: "postgres",
		Ping: pg.Ping,
		Close: func() error {
			pg.Close()
			return nil
		},
	}}

	// The height cache is optional; without it every lookup goes to Postgres.
	var heightCache graph.HeightCache
	if cfg.RedisEnabled {
		redisClient, err := redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - block height cache will be disabled",
				zap.Error(err))
		} else {
			heightCache = redisClient
			deps = append(deps, types.Dependency{
				Name:  "redis",
				Ping:  redisClient.Health,
				Close: redisClient.Close,
			})
			logger.Info("Redis block height cache enabled")
		}
	} else {
		logger.Info("Redis disabled - block heights will always be read from Postgres")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &types.App{
		Config:       cfg,
		Store:        graph.New(pg, logger, heightCache),
		Acquisitions: pg.Acquisitions,
		Dependencies: deps,
		Metrics:      registry,
		Logger:       logger,
	}, nil
}
