package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/canopy-network/blockgraph/pkg/db/graph"
	"go.uber.org/zap"
)

// writeJSON writes a JSON response
func (c *Controller) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.App.Logger.Debug("Failed to write response", zap.Error(err))
	}
}

// writeText writes a plain text error body.
func writeText(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(message))
}

// writeFailure maps err onto the three failure kinds:
//
//	missing parameter        400 "missing parameter: <name>"
//	invalid parameter/hash   400 "invalid input: <detail>"
//	anything else            500 "backend failure" (400 "invalid input: <err>" when collapsed)
func (c *Controller) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrParameterMissing):
		writeText(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrParameterInvalid), errors.Is(err, graph.ErrBlockNotFound):
		writeText(w, http.StatusBadRequest, "invalid input: "+err.Error())
	default:
		if errors.Is(err, context.Canceled) {
			c.App.Logger.Debug("Request cancelled by client", zap.String("path", r.URL.Path))
		} else {
			c.App.Logger.Error("Backend failure",
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Error(err))
		}

		if c.App.Config.CollapseBackendErrors {
			writeText(w, http.StatusBadRequest, "invalid input: "+err.Error())
			return
		}
		writeText(w, http.StatusInternalServerError, "backend failure")
	}
}
