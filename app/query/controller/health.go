package controller

import (
	"net/http"

	"github.com/go-jose/go-jose/v4/json"
)

type healthResponse struct {
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Dependency string `json:"dependency,omitempty"`
	InFlight   int64  `json:"in_flight_clients"`
}

func (c *Controller) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp := healthResponse{Status: "ok"}
	if c.App.Acquisitions != nil {
		resp.InFlight = c.App.Acquisitions.InFlight()
	}

	status := http.StatusOK
	for _, dep := range c.App.Dependencies {
		if err := dep.Ping(ctx); err != nil {
			status = http.StatusInternalServerError
			resp.Status = "errored"
			resp.Error = "dependency connection error"
			resp.Dependency = dep.Name
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
