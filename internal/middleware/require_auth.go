// Package middleware holds the gin middleware shared by every route group
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"SeniorJunior-backend/internal/auth"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/store"
	"SeniorJunior-backend/internal/utilities"
)

// UserLoader finds the account a token was issued to
type UserLoader interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// TokenValidator checks a bearer token and returns its claims
type TokenValidator interface {
	Validate(encoded string) (*auth.Claims, error)
}

type authError struct {
	status int
	msg    string
}

func unauthorized(msg string) *authError {
	return &authError{status: http.StatusUnauthorized, msg: msg}
}

// RequireAuth accepts a request only when its bearer token is valid, not revoked and issued
// to a user that still exists. It stores the user under utilities.UserKey and the claims
// under auth.ClaimsKey.
func RequireAuth(users UserLoader, tokens TokenValidator, bl auth.JwtBlacklistStore) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, claims, aerr := authenticate(ctx, users, tokens, bl)
		if aerr != nil {
			ctx.AbortWithStatusJSON(aerr.status, utilities.ErrorResponse{Error: aerr.msg})
			return
		}
		ctx.Set(auth.ClaimsKey, claims)
		ctx.Set(utilities.UserKey, *user)
		ctx.Next()
	}
}

func authenticate(ctx *gin.Context, users UserLoader, tokens TokenValidator, bl auth.JwtBlacklistStore) (*model.User, *auth.Claims, *authError) {
	raw, err := utilities.ExtractBearerToken(ctx)
	if err != nil {
		return nil, nil, unauthorized(err.Error())
	}

	claims, err := tokens.Validate(raw)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, nil, unauthorized("Access token expired")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return nil, nil, unauthorized("Invalid token issuer")
	case err != nil:
		return nil, nil, unauthorized("Failed to validate token: " + err.Error())
	}

	if bl != nil {
		revoked, err := bl.IsBlacklisted(ctx.Request.Context(), claims.ID)
		if err != nil {
			return nil, nil, &authError{status: http.StatusInternalServerError, msg: "Failed to validate token"}
		}
		if revoked {
			return nil, nil, unauthorized("Token has been revoked")
		}
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, nil, unauthorized("Invalid token subject")
	}
	user, err := users.GetUserByID(ctx.Request.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, unauthorized("User not exist")
	}
	if err != nil {
		return nil, nil, &authError{status: http.StatusInternalServerError, msg: "Failed to retrieve user data"}
	}
	return user, claims, nil
}
