package types

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/canopy-network/blockgraph/pkg/db/graph"
	"github.com/canopy-network/blockgraph/pkg/db/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Dependency is an external service the API needs to answer queries.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
	// Close is called once on shutdown. Optional.
	Close func() error
}

type App struct {
	Config Config
	// Store serves the block DAG queries.
	Store graph.Store
	// Acquisitions accounts for the connections Store hands out.
	Acquisitions *postgres.Acquisitions
	// Dependencies are pinged by /health and closed on shutdown, in order.
	Dependencies []Dependency
	// Metrics is the registry served on /metrics.
	Metrics *prometheus.Registry
	// Zap Logger
	Logger *zap.Logger
	// Server represents the HTTP server instance used to handle incoming client requests and manage HTTP routes.
	Server *http.Server
}

// Start serves until ctx is done, then drains in-flight requests and closes the dependencies.
func (a *App) Start(ctx context.Context) {
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Fatal("HTTP server stopped", zap.Error(err))
		}
	}()
	a.Logger.Info("API server listening", zap.String("addr", a.Server.Addr))
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}

	for _, dep := range a.Dependencies {
		if dep.Close == nil {
			continue
		}
		if err := dep.Close(); err != nil {
			a.Logger.Error("Failed to close dependency", zap.String("dependency", dep.Name), zap.Error(err))
		}
	}

	_ = a.Logger.Sync()
	a.Logger.Info("さようなら!")
}
