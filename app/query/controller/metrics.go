package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/canopy-network/blockgraph/pkg/db/postgres"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const metricsNamespace = "blockgraph"

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer, acq *postgres.Acquisitions) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}

	collectors := []prometheus.Collector{m.requests, m.duration}
	if acq != nil {
		collectors = append(collectors,
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "db_clients_acquired_total",
				Help:      "Database clients acquired for requests.",
			}, func() float64 { return float64(acq.Acquired()) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "db_clients_released_total",
				Help:      "Database clients released by requests.",
			}, func() float64 { return float64(acq.Released()) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "db_clients_in_flight",
				Help:      "Database clients currently held by requests.",
			}, func() float64 { return float64(acq.InFlight()) }),
		)
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// statusRecorder captures the response code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// instrument records metrics for every routed request and logs it at debug level.
func (c *Controller) instrument(m *metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			code := strconv.Itoa(rec.statusCode)
			elapsed := time.Since(start)

			m.requests.WithLabelValues(route, code).Inc()
			m.duration.WithLabelValues(route, code).Observe(elapsed.Seconds())

			c.App.Logger.Debug("Served request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", rec.statusCode),
				zap.Duration("duration", elapsed))
		})
	}
}
