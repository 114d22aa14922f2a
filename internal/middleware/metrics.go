package middleware

import (
	"time"

	"rtunnel/internal/metrics"

	"github.com/gin-gonic/gin"
)

/**
 * HTTP请求统计中间件
 * @description
 * - 统计请求数量和处理时间
 * - 状态码 >= 400 计为错误请求
 * - 以路由路径作为标签，未匹配的路由记为 unknown
 */
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		metrics.IncrementRequestCount(path)
		metrics.RecordRequestDuration(path, duration)
		if c.Writer.Status() >= 400 {
			metrics.IncrementErrorCount(path)
		}
	}
}
