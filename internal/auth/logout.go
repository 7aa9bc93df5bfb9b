package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/utilities"
)

// ClaimsKey is where RequireAuth stores the validated *Claims
const ClaimsKey = "claims"

// LogoutController handles user logout by blacklisting JWT tokens
type LogoutController struct {
	BlacklistStore JwtBlacklistStore
	Audit          *AuditLog
	Log            *zap.Logger
}

// NewLogoutController creates a new instance of LogoutController
func NewLogoutController(blacklistStore JwtBlacklistStore, audit *AuditLog, log *zap.Logger) *LogoutController {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogoutController{
		BlacklistStore: blacklistStore,
		Audit:          audit,
		Log:            log,
	}
}

// LogoutHandler revokes the presented token until it expires
// @Summary Logout
// @Tags Auth
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} utilities.MessageResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Failed to logout"
// @Router /auth/logout [post]
func (lc *LogoutController) LogoutHandler(c *gin.Context) {
	claims, err := ExtractClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	err = lc.BlacklistStore.AddToBlacklist(c.Request.Context(), claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		lc.Log.Error("failed to blacklist token", zap.String("user_id", claims.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to logout"})
		return
	}

	lc.Audit.LogAuthAttempt("info", AuthTypeLogout, StatusSuccess, claims.Email, "")
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Successfully logged out"})
}

// ExtractClaims returns the claims RequireAuth attached to c
func ExtractClaims(c *gin.Context) (*Claims, error) {
	claims, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	realClaims, okCast := claims.(*Claims)
	if !okCast {
		return nil, errors.New("invalid token claims type")
	}
	if realClaims.ID == "" || realClaims.ExpiresAt == nil {
		return nil, errors.New("token cannot be revoked")
	}
	return realClaims, nil
}
