package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yellowcard-api/internal/service"
)

const (
	unmatchedRoute = "unmatched"
	metricsRoute   = "/metrics"
)

// Metrics records request latency and counts labelled by route template.
// Requests that match no route share one label so scanners cannot inflate
// series cardinality. Scrapes of the metrics endpoint are not counted.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		switch route {
		case metricsRoute:
			return
		case "":
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
