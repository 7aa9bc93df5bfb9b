package utilities

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrBadAuthHeader is returned when the Authorization header is not "Bearer <token>"
var ErrBadAuthHeader = errors.New("Invalid authorization header")

// ExtractBearerToken returns the token of the Authorization header. The scheme is case-insensitive.
func ExtractBearerToken(c *gin.Context) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrBadAuthHeader
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrBadAuthHeader
	}
	return token, nil
}
