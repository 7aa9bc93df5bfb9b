// Package controller holds the HTTP helpers shared by every handler package
package controller

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/service"
	"SeniorJunior-backend/internal/upload"
	"SeniorJunior-backend/internal/utilities"
)

// MsgServerError is the body of every unexpected failure
const MsgServerError = "Server error"

// StatusFor maps an error returned by a service or the upload handler to an HTTP status
func StatusFor(err error) int {
	var rejected *upload.RejectedError
	if errors.As(err, &rejected) {
		if rejected.TooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}

	switch service.KindOf(err) {
	case service.KindValidation, service.KindConflict, service.KindInvalidOTP:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError aborts c with the status for err. Server errors are logged and answered generically.
func WriteError(c *gin.Context, log *zap.Logger, err error) {
	status := StatusFor(err)
	msg := err.Error()

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		msg = fmt.Sprintf("Request body too large! Maximum size is %d bytes.", maxBytes.Limit)
	}

	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		msg = MsgServerError
	}
	c.AbortWithStatusJSON(status, utilities.ErrorResponse{Error: msg})
}

// BindError answers a request whose body could not be decoded
func BindError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		WriteError(c, nil, err)
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, utilities.ErrorResponse{
		Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
	})
}

// CurrentUser returns the user RequireAuth attached, answering 401 when it is missing
func CurrentUser(c *gin.Context) (model.User, bool) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return model.User{}, false
	}
	return user, true
}

// ParamID parses the uuid path parameter name, answering 400 when it is malformed
func ParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid %s", name),
		})
		return uuid.Nil, false
	}
	return id, true
}

// Cleaner deletes stored files off the request path
type Cleaner interface {
	Enqueue(paths ...string)
}

// MultipartForm returns the parsed multipart form of c, nil when the body is not multipart
func MultipartForm(c *gin.Context) (*multipart.Form, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		return nil, nil
	}
	return form, err
}

// DiscardUploads queues the files saved for a request the service refused.
// A server error may come after the record referencing them was written, so those keep their files.
func DiscardUploads(cleaner Cleaner, err error, saved map[string]string) {
	if cleaner == nil || len(saved) == 0 || service.KindOf(err) == service.KindServer {
		return
	}
	paths := make([]string, 0, len(saved))
	for _, p := range saved {
		paths = append(paths, p)
	}
	cleaner.Enqueue(paths...)
}
