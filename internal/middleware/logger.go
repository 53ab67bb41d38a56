package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// RequestID tags every request with an id for log correlation, reusing the
// caller's X-Request-ID when one is supplied.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Logger writes one line per request in the component-prefixed format the
// services use: method, route, status, latency and client address.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		id, _ := c.Get(requestIDKey)
		log.Printf("http.Request: [%v] %s %s -> %d (%s, %s)",
			id, c.Request.Method, path, c.Writer.Status(),
			time.Since(start).Round(time.Microsecond), c.ClientIP())
	}
}

// Recovery converts a panic into the standard error envelope instead of an
// empty 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		id, _ := c.Get(requestIDKey)
		log.Printf("http.Recovery: [%v] panic: %v", id, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "an internal error occurred",
			},
		})
	})
}
