package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"SeniorJunior-backend/internal/utilities"
)

// RoleDeniedMessage is the 403 body for a caller outside every allowed role
func RoleDeniedMessage(roles ...string) string {
	return "Access denied: " + strings.Join(roles, " or ") + " account required"
}

// CheckRole lets the request through only when the user set by RequireAuth has one of roles.
// It must run after RequireAuth.
func CheckRole(roles ...string) gin.HandlerFunc {
	denied := RoleDeniedMessage(roles...)
	return func(ctx *gin.Context) {
		user, err := utilities.ExtractUser(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
			return
		}
		if utilities.Contains(roles, user.Role) {
			ctx.Next()
			return
		}
		ctx.AbortWithStatusJSON(http.StatusForbidden, utilities.ErrorResponse{Error: denied})
	}
}
