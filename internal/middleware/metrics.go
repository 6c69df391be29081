package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shipit/shipit-backend/internal/services"
)

// Metrics counts requests by route template so ids do not explode cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		services.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
