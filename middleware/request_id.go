package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries a correlation ID through the request lifecycle.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns a UUID to each request unless the client already sent one.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Request.Header.Set(RequestIDHeader, id)
		ctx.Header(RequestIDHeader, id)
		ctx.Next()
	}
}
