// Package project provides HTTP handlers for project postings.
package project

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/controller"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/service"
	"SeniorJunior-backend/internal/utilities"
)

// ProjectController handles project related endpoints
type ProjectController struct {
	Projects *service.ProjectService
	Log      *zap.Logger
}

// NewProjectController creates a new instance of ProjectController
func NewProjectController(projects *service.ProjectService, log *zap.Logger) *ProjectController {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProjectController{Projects: projects, Log: log}
}

// ProjectResponse wraps a created or updated project
type ProjectResponse struct {
	Message string         `json:"message"`
	Project *model.Project `json:"project"`
}

// ListOpen returns every project accepting applications
// @Summary List open projects
// @Tags Project
// @Produce json
// @Success 200 {array} model.PublicProject
// @Failure 500 {object} utilities.ErrorResponse "Server error"
// @Router /projects [get]
func (pc *ProjectController) ListOpen(c *gin.Context) {
	projects, err := pc.Projects.ListOpen(c.Request.Context())
	if err != nil {
		controller.WriteError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// ListMine returns the caller's projects in every status
// @Summary List my projects
// @Description Only senior can access this endpoint
// @Tags Project
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Project
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as senior"
// @Router /projects/my-projects [get]
func (pc *ProjectController) ListMine(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}
	projects, err := pc.Projects.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		controller.WriteError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// ListActive returns the caller's closed projects with their accepted juniors
// @Summary List my active projects
// @Description Only senior can access this endpoint. Active means closed to new applications and not yet completed.
// @Tags Project
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.ActiveProject
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as senior"
// @Router /projects/my-active-projects [get]
func (pc *ProjectController) ListActive(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}
	projects, err := pc.Projects.ListActive(c.Request.Context(), user.ID)
	if err != nil {
		controller.WriteError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// ListForJunior returns the projects the caller was accepted into
// @Summary List junior projects
// @Description Only junior can access this endpoint
// @Tags Project
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Project
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as junior"
// @Router /projects/junior-projects [get]
func (pc *ProjectController) ListForJunior(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}
	projects, err := pc.Projects.ListForJunior(c.Request.Context(), user.ID)
	if err != nil {
		controller.WriteError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// Create posts a new open project
// @Summary Create project
// @Description Only senior can access this endpoint
// @Tags Project
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param project body service.CreateProjectInput true "Project information"
// @Success 201 {object} ProjectResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as senior"
// @Failure 500 {object} utilities.ErrorResponse "Server error"
// @Router /projects [post]
func (pc *ProjectController) Create(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}
	var in service.CreateProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		controller.BindError(c, err)
		return
	}
	project, err := pc.Projects.Create(c.Request.Context(), user.ID, in)
	if err != nil {
		controller.WriteError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusCreated, ProjectResponse{Message: service.MsgProjectCreated, Project: project})
}

// Update patches a project owned by the caller
// @Summary Update project
// @Description Only the owning senior can access this endpoint. Omitted fields are left unchanged.
// @Tags Project
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Project ID"
// @Param project body service.UpdateProjectInput true "Fields to change"
// @Success 200 {object} ProjectResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Project not found"
// @Router /projects/{id} [put]
func (pc *ProjectController) Update(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := controller.ParamID(c, "id")
	if !ok {
		return
	}
	var in service.UpdateProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		controller.BindError(c, err)
		return
	}
	project, err := pc.Projects.Update(c.Request.Context(), user.ID, id, in)
	if err != nil {
		controller.WriteError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, ProjectResponse{Message: service.MsgProjectUpdated, Project: project})
}

// Delete removes a project owned by the caller together with its applications
// @Summary Delete project
// @Description Only the owning senior can access this endpoint. Applications and their résumés are removed too.
// @Tags Project
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Project ID"
// @Success 200 {object} utilities.MessageResponse
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Project not found"
// @Router /projects/{id} [delete]
func (pc *ProjectController) Delete(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := controller.ParamID(c, "id")
	if !ok {
		return
	}
	if err := pc.Projects.Delete(c.Request.Context(), user.ID, id); err != nil {
		controller.WriteError(c, pc.Log, err)
		return
	}
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: service.MsgProjectDeleted})
}
