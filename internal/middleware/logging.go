package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oggyb/roomate/internal/logger"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an ID, stores a request-scoped
// logger in the request context and logs the outcome.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)

		l := base.With("request_id", reqID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), l))

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if uid := GetUserID(c); uid != "" {
			args = append(args, "user", uid)
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			l.Error("http request", args...)
		case status >= 400:
			l.Warn("http request", args...)
		default:
			l.Info("http request", args...)
		}
	}
}
