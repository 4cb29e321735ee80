// Package middleware holds the gin middleware used by the API server:
// request IDs, request logging, CORS, and HTTP metrics.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID is the header carrying the request correlation ID.
const HeaderRequestID = "X-Request-ID"

// contextKeyRequestID is the gin context key for the request ID.
const contextKeyRequestID = "request_id"

// RequestID ensures every request carries a correlation ID: an incoming
// X-Request-ID is propagated, otherwise a fresh UUID is generated.  The ID
// is echoed on the response and stored in the gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(contextKeyRequestID, id)
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the request's correlation ID, or "" when the
// RequestID middleware did not run.
func GetRequestID(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}
