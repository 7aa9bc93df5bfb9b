// Package application provides HTTP handlers for job application operations.
package application

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/controller"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/service"
	"SeniorJunior-backend/internal/upload"
	"SeniorJunior-backend/internal/utilities"
)

// ApplicationController handles job application related endpoints
type ApplicationController struct {
	Applications *service.ApplicationService
	Uploads      *upload.Handler
	Cleaner      controller.Cleaner
	Log          *zap.Logger
}

// NewApplicationController creates a new instance of ApplicationController
func NewApplicationController(apps *service.ApplicationService, uploads *upload.Handler, cleaner controller.Cleaner, log *zap.Logger) *ApplicationController {
	if log == nil {
		log = zap.NewNop()
	}
	return &ApplicationController{Applications: apps, Uploads: uploads, Cleaner: cleaner, Log: log}
}

// ApplyForm is the multipart application body
type ApplyForm struct {
	ProjectID    string `form:"projectId" json:"projectId"`
	CoverLetter  string `form:"coverLetter" json:"coverLetter"`
	PortfolioURL string `form:"portfolioUrl" json:"portfolioUrl"`
}

// StatusRequest is the new status of an application
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ApplicationResponse wraps a created or updated application
type ApplicationResponse struct {
	Message     string             `json:"message"`
	Application *model.Application `json:"application"`
}

// ApplicationHandler handles the creation of a new application by a junior.
// @Summary Apply to a project
// @Description Only junior can access this endpoint. The project must be open and a PDF résumé is required.
// @Tags Application
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param projectId formData string true "Project ID"
// @Param coverLetter formData string true "Cover letter"
// @Param portfolioUrl formData string false "Portfolio URL"
// @Param resume formData file true "Resume PDF"
// @Success 201 {object} ApplicationResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid body, missing résumé, already applied or project not open"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as junior"
// @Failure 404 {object} utilities.ErrorResponse "Project not found"
// @Failure 413 {object} utilities.ErrorResponse "Upload too large"
// @Failure 500 {object} utilities.ErrorResponse "Server error"
// @Router /applications [post]
func (ac *ApplicationController) ApplicationHandler(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}

	var form ApplyForm
	if err := c.ShouldBind(&form); err != nil {
		controller.BindError(c, err)
		return
	}
	mf, err := controller.MultipartForm(c)
	if err != nil {
		controller.BindError(c, err)
		return
	}
	saved, err := ac.Uploads.SaveForm(c.Request.Context(), mf, upload.FieldResume)
	if err != nil {
		controller.WriteError(c, ac.Log, err)
		return
	}

	application, err := ac.Applications.Apply(c.Request.Context(), user.ID, service.ApplyInput{
		ProjectID:    form.ProjectID,
		CoverLetter:  form.CoverLetter,
		PortfolioURL: form.PortfolioURL,
		ResumePath:   saved[upload.FieldResume],
	})
	if err != nil {
		controller.DiscardUploads(ac.Cleaner, err, saved)
		controller.WriteError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusCreated, ApplicationResponse{Message: service.MsgApplicationSubmitted, Application: application})
}

// ListMine returns the caller's applications with their project titles
// @Summary List my applications
// @Description Only junior can access this endpoint
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.ApplicationWithProject
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as junior"
// @Router /applications/my-applications [get]
func (ac *ApplicationController) ListMine(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}
	apps, err := ac.Applications.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		controller.WriteError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// ListForProject returns the applications to a project owned by the caller
// @Summary List applications of a project
// @Description Only the owning senior can access this endpoint
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param projectId path string true "Project ID"
// @Success 200 {array} model.ApplicationWithApplicant
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Project not found"
// @Router /applications/project/{projectId} [get]
func (ac *ApplicationController) ListForProject(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}
	projectID, ok := controller.ParamID(c, "projectId")
	if !ok {
		return
	}
	apps, err := ac.Applications.ListForProject(c.Request.Context(), user.ID, projectID)
	if err != nil {
		controller.WriteError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, apps)
}

// UpdateStatus moves an application along the review workflow
// @Summary Update application status
// @Description Only the owning senior can access this endpoint. pending → reviewing → accepted | rejected; accepting adds the junior to the project.
// @Tags Application
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Application ID"
// @Param body body StatusRequest true "New status"
// @Success 200 {object} ApplicationResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid status or transition"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Router /applications/{id} [put]
func (ac *ApplicationController) UpdateStatus(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := controller.ParamID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BindError(c, err)
		return
	}
	application, err := ac.Applications.UpdateStatus(c.Request.Context(), user.ID, id, req.Status)
	if err != nil {
		controller.WriteError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, ApplicationResponse{Message: service.MsgApplicationUpdated, Application: application})
}

// Withdraw deletes a pending application within 24 hours of applying
// @Summary Withdraw application
// @Description Only the applying junior can access this endpoint
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Application ID"
// @Success 200 {object} utilities.MessageResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the applicant, not pending or window passed"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Router /applications/{id} [delete]
func (ac *ApplicationController) Withdraw(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := controller.ParamID(c, "id")
	if !ok {
		return
	}
	if err := ac.Applications.Withdraw(c.Request.Context(), user.ID, id); err != nil {
		controller.WriteError(c, ac.Log, err)
		return
	}
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: service.MsgApplicationWithdrawn})
}
