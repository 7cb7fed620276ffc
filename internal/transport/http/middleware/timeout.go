package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	resp "github.com/Divyaanshvats/intern-management-system/internal/transport/http/response"
)

// Timeout bounds the request context. Handlers that give up after the
// deadline without writing get a 504.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(resp.CodeGatewayTimeout, resp.Error(resp.CodeGatewayTimeout, ""))
		}
	}
}
