package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/physiome/admin-api/pkg/httputil"
)

// DefaultMaxBodySize covers the largest JSON payload, a contact message.
const DefaultMaxBodySize = 64 << 10

// SizeLimit rejects bodies over maxBytes, whether or not Content-Length
// is declared.
func SizeLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	msg := fmt.Sprintf("Request body exceeds %d bytes", maxBytes)

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			httputil.Abort(c, http.StatusRequestEntityTooLarge, msg)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
