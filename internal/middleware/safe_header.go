package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderPolicy controls SafeHeader
type HeaderPolicy struct {
	// HSTS sends Strict-Transport-Security, only meaningful behind TLS
	HSTS bool
	// CachePrefixes are path prefixes whose responses may be cached by the browser.
	// Uploaded files never change once stored, everything else is no-store.
	CachePrefixes []string
	CacheControl  string
}

// SafeHeader sets the security headers on every response
func SafeHeader(policy HeaderPolicy) gin.HandlerFunc {
	if policy.CacheControl == "" {
		policy.CacheControl = "private, max-age=86400"
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Del("X-Powered-By")

		cache := "no-store"
		for _, p := range policy.CachePrefixes {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				cache = policy.CacheControl
				break
			}
		}
		h.Set("Cache-Control", cache)

		if policy.HSTS {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		c.Next()
	}
}
