package query

import (
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/canopy-network/blockgraph/app/query/controller"
	"github.com/canopy-network/blockgraph/app/query/types"
)

// NewHandler returns the routed API wrapped with CORS and gzip compression.
func NewHandler(app *types.App) (http.Handler, error) {
	ctler := controller.NewController(app)
	router, err := ctler.NewRouter()
	if err != nil {
		return nil, err
	}

	// any origin may read the API
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions, http.MethodHead},
		AllowedHeaders: []string{"*"},
	}).Handler(router)

	return gziphandler.GzipHandler(corsHandler), nil
}

// NewServer builds app.Server bound to the configured address.
func NewServer(app *types.App) error {
	handler, err := NewHandler(app)
	if err != nil {
		return err
	}

	addr := app.Config.Addr()
	app.Server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	app.Logger.Info("Starting server", zap.String("addr", addr))

	return nil
}
