// Package utilities holds small helpers shared by handlers and middleware
package utilities

import (
	"errors"

	"github.com/gin-gonic/gin"

	"SeniorJunior-backend/internal/model"
)

// UserKey is the gin context key RequireAuth stores the caller under
const UserKey = "user"

var (
	// ErrNoUser means no authenticated user is attached to the request
	ErrNoUser = errors.New("User information not provided")
	// ErrBadUser means the context value under UserKey is not a user
	ErrBadUser = errors.New("Failed to assert type")
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of requests that only report an outcome
type MessageResponse struct {
	Message string `json:"message"`
}

// ExtractUser returns the user RequireAuth attached to c. It never aborts.
func ExtractUser(c *gin.Context) (model.User, error) {
	v, ok := c.Get(UserKey)
	if !ok || v == nil {
		return model.User{}, ErrNoUser
	}
	switch u := v.(type) {
	case model.User:
		return u, nil
	case *model.User:
		if u == nil {
			return model.User{}, ErrNoUser
		}
		return *u, nil
	default:
		return model.User{}, ErrBadUser
	}
}
