package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var multipartOverhead = int64(64 * 1024) // form fields and part headers

// SizeLimit caps the request body at maxFiles files of maxFileBytes each plus form overhead.
// Reading past the cap fails with *http.MaxBytesError, answered with 413 Request Entity Too Large.
func SizeLimit(maxFileBytes int64, maxFiles int) gin.HandlerFunc {
	limit := maxFileBytes*int64(maxFiles) + multipartOverhead
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		c.Next()
	}
}
