package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/canopy-network/blockgraph/app/query"
	"github.com/canopy-network/blockgraph/app/query/types"
	"github.com/canopy-network/blockgraph/pkg/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		fmt.Fprintf(os.Stderr, "unable to build logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := types.LoadConfig()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	app, err := query.Initialize(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Unable to initialize application", zap.Error(err))
	}

	if err := query.NewServer(app); err != nil {
		logger.Fatal("Unable to initialize server", zap.Error(err))
	}

	app.Start(ctx)
}
