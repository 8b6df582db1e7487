package prometheus

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/physiome/admin-api/pkg/metrics"
)

// Handler records HTTP metrics and exposes the registry.
type Handler struct {
	gatherer prometheus.Gatherer
	metrics  *metrics.Metrics
}

func New(gatherer prometheus.Gatherer, m *metrics.Metrics) *Handler {
	return &Handler{gatherer: gatherer, metrics: m}
}

// Middleware labels requests by route template so ids do not explode the
// label space. Unmatched routes share the "unmatched" label.
func (h *Handler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		h.metrics.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		h.metrics.RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 500 {
			h.metrics.ErrorTotal.WithLabelValues(c.Request.Method, path, "server").Inc()
		} else if c.Writer.Status() >= 400 {
			h.metrics.ErrorTotal.WithLabelValues(c.Request.Method, path, "client").Inc()
		}
	}
}

func (h *Handler) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}
