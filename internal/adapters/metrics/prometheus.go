package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"pizza-authz/internal/domain"
)

// Collector implements ports.Metrics on its own registry, so several
// instances can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	decisions       *prometheus.CounterVec
	logins          *prometheus.CounterVec
	httpInFlight    prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Authorization decisions by action and outcome.",
		}, []string{"action", "outcome"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "session_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	c.registry.MustRegister(
		c.decisions,
		c.logins,
		c.httpInFlight,
		c.httpRequests,
		c.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) ObserveDecision(action string, decision domain.Decision) {
	outcome := "allow"
	if !decision.Allowed {
		outcome = string(decision.Reason)
	}
	c.decisions.WithLabelValues(action, outcome).Inc()
}

func (c *Collector) ObserveLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Middleware records request count and latency labelled by the echo route
// pattern rather than the raw path.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			c.httpInFlight.Inc()
			defer c.httpInFlight.Dec()
			started := time.Now()

			err := next(ec)
			if err != nil {
				ec.Error(err)
			}

			route := ec.Path()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(ec.Response().Status)
			c.requestDuration.WithLabelValues(ec.Request().Method, route, status).Observe(time.Since(started).Seconds())
			c.httpRequests.WithLabelValues(ec.Request().Method, route, status).Inc()
			return nil
		}
	}
}
