package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/results-app/internal/service"
)

// unmatchedRoute labels requests that hit no route so random paths do not
// create new series.
const unmatchedRoute = "unmatched"

// Metrics records request duration and count per route pattern. Paths in
// skip, such as the scrape endpoint itself, are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
