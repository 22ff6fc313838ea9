package controller

import (
	"net/http"

	"github.com/canopy-network/blockgraph/app/query/types"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App: app,
	}
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	metrics, err := newMetrics(c.App.Metrics, c.App.Acquisitions)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.Use(c.instrument(metrics))

	r.Handle("/health", http.HandlerFunc(c.HandleHealth)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(c.App.Metrics, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.HandleFunc("/blocksBetweenHeights", c.HandleBlocksBetweenHeights).Methods(http.MethodGet)
	r.HandleFunc("/head", c.HandleHead).Methods(http.MethodGet)
	r.HandleFunc("/blockHash", c.HandleBlockHash).Methods(http.MethodGet)
	r.HandleFunc("/blockHashesByIds", c.HandleBlockHashesByIDs).Methods(http.MethodGet)

	return r, nil
}
