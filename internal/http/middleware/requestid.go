// Package middleware provides HTTP middleware functions.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inkbin/inkbin/pkg/ctxutil"
)

const (
	headerRequestID = "X-Request-ID"
	headerClientID  = "X-Client-ID"
)

// RequestID sets a unique request ID in the context for each request, and a
// client ID used downstream as the viewer identity for hit counting.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		// ClientID: optional header; fall back to the client IP so anonymous
		// viewers still deduplicate in the hit counter.
		clientID := c.GetHeader(headerClientID)
		if clientID == "" {
			clientID = c.ClientIP()
		}
		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		ctx = ctxutil.WithClientID(ctx, clientID)
		ctx = ctxutil.WithViewerKey(ctx, clientID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(headerRequestID, requestID)
		c.Next()
	}
}
