package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDKey is the gin context key the access log reads the id back from.
const requestIDKey = "request_id"

// RequestID tags every request with an id so a bill upload can be traced
// from the access log through the extraction pipeline. An inbound
// X-Request-ID is honored, otherwise one is minted.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

// Logger writes one access-log line per request after the handler chain
// completes.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		rid, _ := c.Get(requestIDKey)
		log.Printf("http: %s %s -> %d in %s (rid=%v)",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Round(time.Microsecond),
			rid,
		)
	}
}

// Recovery converts handler panics into 500 responses so a malformed
// upload cannot take the server down.
func Recovery() gin.HandlerFunc {
	return gin.Recovery()
}
