// Package file serves stored uploads.
package file

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/storage"
	"SeniorJunior-backend/internal/upload"
	"SeniorJunior-backend/internal/utilities"
)

// FileController handles file related endpoints
type FileController struct {
	Uploads *upload.Handler
	Log     *zap.Logger
}

// NewFileController creates a new instance of FileController
func NewFileController(uploads *upload.Handler, log *zap.Logger) *FileController {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileController{Uploads: uploads, Log: log}
}

// GetFile streams a stored upload such as a résumé or avatar.
// @Summary Retrieve an uploaded file
// @Tags File
// @Produce octet-stream
// @Param filepath path string true "Stored path below /uploads, e.g. resumes/1700000000000-cv.pdf"
// @Success 200 {string} binary "File content"
// @Failure 404 {object} utilities.ErrorResponse "File not found"
// @Failure 500 {object} utilities.ErrorResponse "Fail to send file content"
// @Router /uploads/{filepath} [get]
func (fc *FileController) GetFile(c *gin.Context) {
	obj, err := fc.Uploads.Open(c.Request.Context(), upload.PathPrefix+c.Param("filepath"))
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) || errors.Is(err, storage.ErrInvalidKey) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "File not found"})
			return
		}
		fc.Log.Error("failed to open upload", zap.String("path", c.Param("filepath")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Fail to send file content"})
		return
	}
	defer func() {
		if err := obj.Close(); err != nil {
			fc.Log.Warn("failed to close upload reader", zap.Error(err))
		}
	}()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	if obj.Size >= 0 {
		c.Header("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj); err != nil {
		fc.Log.Warn("failed to stream upload", zap.Error(err))
		c.Abort()
	}
}
