package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// unmatchedRoute is the route label of requests that matched no route.
const unmatchedRoute = "unmatched"

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "server",
		Name:      "http_requests_total",
		Help:      "Requests to the status server by route and status code.",
	}, []string{"method", "route", "code"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "server",
		Name:      "http_request_duration_seconds",
		Help:      "Status server request duration. Preview requests include netgroup resolution and host lookups.",
		Buckets:   []float64{.005, .025, .1, .5, 1, 5, 15, 60},
	}, []string{"route"})

	requestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "netgroup_nfs",
		Subsystem: "server",
		Name:      "http_requests_in_flight",
		Help:      "Requests currently being served.",
	})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, requestsInFlight)
}

func MetricsHandler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c *echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

func routeLabel(c *echo.Context) string {
	if p := c.RouteInfo().Path; p != "" {
		return p
	}
	return unmatchedRoute
}

// MetricsMiddleware records every request under its route template and logs
// it at debug level.
func MetricsMiddleware(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			requestsInFlight.Inc()
			defer requestsInFlight.Dec()

			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)

			route := routeLabel(c)
			code := strconv.Itoa(c.Response().(*echo.Response).Status)
			requestsTotal.WithLabelValues(c.Request().Method, route, code).Inc()
			requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

			logger.Debug().
				Str("route", route).
				Str("uri", c.Request().RequestURI).
				Str("code", code).
				Str("client", c.RealIP()).
				Dur("elapsed", elapsed).
				Msg("request served")
			return err
		}
	}
}
