package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// RequestTracingMiddleware assigns each request an id, reusing one supplied
// by an upstream proxy, and echoes it back so clients can correlate logs.
func RequestTracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// RequestID returns the id assigned by RequestTracingMiddleware, or an empty
// string when the middleware is not installed.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
