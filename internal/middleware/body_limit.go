package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/bps-routine/pkg/errors"
	"github.com/noah-isme/bps-routine/pkg/response"
)

// BodyLimit caps request bodies at limit bytes. Requests that declare a larger
// Content-Length are refused up front; others fail when the handler reads past the limit.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "request body too large"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
