package http

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	requestsMetricName    = "builder_http_requests_total"
	publishesMetricName   = "builder_preview_publishes_total"
	subscribersMetricName = "builder_preview_subscribers"
)

type metrics struct {
	requests    *prometheus.CounterVec
	publishes   prometheus.Counter
	subscribers *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: requestsMetricName,
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		publishes: f.NewCounter(prometheus.CounterOpts{
			Name: publishesMetricName,
			Help: "Preview contents published over HTTP.",
		}),
		subscribers: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: subscribersMetricName,
			Help: "Connected preview subscribers by transport.",
		}, []string{"transport"}),
	}
}

// observe counts every request after it is handled. Unmatched routes are
// grouped under one label to keep cardinality bounded.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
