package auth

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"SeniorJunior-backend/internal/controller"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/service"
	"SeniorJunior-backend/internal/upload"
	"SeniorJunior-backend/internal/utilities"
)

// Audit auth types
const (
	AuthTypeLocal    = "Local"
	AuthTypeRegister = "Register"
	AuthTypeVerify   = "Verify"
	AuthTypeReset    = "Reset"
	AuthTypeLogout   = "Logout"
)

// LocalAuthHandler serves the email and password account endpoints
type LocalAuthHandler struct {
	Auth    *service.AuthService
	Uploads *upload.Handler
	Cleaner controller.Cleaner
	Audit   *AuditLog
	Log     *zap.Logger
}

// NewLocalAuthHandler returns a handler over auth
func NewLocalAuthHandler(auth *service.AuthService, uploads *upload.Handler, cleaner controller.Cleaner, audit *AuditLog, log *zap.Logger) *LocalAuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalAuthHandler{Auth: auth, Uploads: uploads, Cleaner: cleaner, Audit: audit, Log: log}
}

// RegisterForm is the registration body, sent as multipart form data
type RegisterForm struct {
	Name              string `form:"name" json:"name"`
	Email             string `form:"email" json:"email"`
	Password          string `form:"password" json:"password"`
	UserType          string `form:"userType" json:"userType"`
	Skills            string `form:"skills" json:"skills"`
	Experience        string `form:"experience" json:"experience"`
	ProjectsCompleted int    `form:"projectsCompleted" json:"projectsCompleted"`
	GithubURL         string `form:"githubUrl" json:"githubUrl"`
}

// EmailRequest carries an email address
type EmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// VerifyEmailRequest carries the verification code
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required"`
	OTP   string `json:"otp" binding:"required"`
}

// LoginRequest carries credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ProfileForm is the profile patch. Missing or blank fields keep their value.
type ProfileForm struct {
	Name              *string      `form:"name" json:"name"`
	Skills            *string      `form:"skills" json:"skills"`
	Experience        *string      `form:"experience" json:"experience"`
	ProjectsCompleted *json.Number `form:"projectsCompleted" json:"projectsCompleted"`
	GithubURL         *string      `form:"githubUrl" json:"githubUrl"`
}

// ProfileResponse is returned after a profile update
type ProfileResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// RegisterHandler creates or replaces an unverified account and mails a verification code
// @Summary Register
// @Description Create an unverified account. Seniors need at least 6 completed projects.
// @Tags Auth
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Full name"
// @Param email formData string true "Email"
// @Param password formData string true "Password, at least 8 characters"
// @Param userType formData string true "junior or senior"
// @Param skills formData string false "Comma separated skills"
// @Param experience formData string false "Experience"
// @Param projectsCompleted formData int false "Completed project count"
// @Param githubUrl formData string false "GitHub profile URL"
// @Param resume formData file false "Resume PDF"
// @Param profilePicture formData file false "JPG or PNG avatar"
// @Success 201 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid body, senior requirement, email taken or rejected upload"
// @Failure 413 {object} utilities.ErrorResponse "Upload too large"
// @Failure 429 {object} utilities.ErrorResponse "Too many code requests"
// @Failure 500 {object} utilities.ErrorResponse "Server error"
// @Router /auth/register [post]
func (h *LocalAuthHandler) RegisterHandler(c *gin.Context) {
	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		controller.BindError(c, err)
		return
	}

	mf, err := controller.MultipartForm(c)
	if err != nil {
		controller.BindError(c, err)
		return
	}
	saved, err := h.Uploads.SaveForm(c.Request.Context(), mf, upload.FieldResume, upload.FieldProfilePicture)
	if err != nil {
		h.Audit.LogAuthAttempt("warning", AuthTypeRegister, StatusFail, form.Email, err.Error())
		controller.WriteError(c, h.Log, err)
		return
	}

	err = h.Auth.Register(c.Request.Context(), service.RegisterInput{
		Name:               form.Name,
		Email:              form.Email,
		Password:           form.Password,
		UserType:           form.UserType,
		Skills:             form.Skills,
		Experience:         form.Experience,
		ProjectsCompleted:  form.ProjectsCompleted,
		GithubURL:          form.GithubURL,
		ResumePath:         saved[upload.FieldResume],
		ProfilePicturePath: saved[upload.FieldProfilePicture],
	})
	if err != nil {
		controller.DiscardUploads(h.Cleaner, err, saved)
		h.Audit.LogAuthAttempt("warning", AuthTypeRegister, StatusFail, form.Email, err.Error())
		controller.WriteError(c, h.Log, err)
		return
	}

	h.Audit.LogAuthAttempt("info", AuthTypeRegister, StatusSuccess, form.Email, "")
	c.JSON(http.StatusCreated, utilities.MessageResponse{Message: service.MsgRegistered})
}

// ResendOTPHandler mails a fresh verification code
// @Summary Resend verification code
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Account email"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid body or already verified"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Failure 429 {object} utilities.ErrorResponse "Too many code requests"
// @Failure 500 {object} utilities.ErrorResponse "Server error"
// @Router /auth/resend-otp [post]
func (h *LocalAuthHandler) ResendOTPHandler(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BindError(c, err)
		return
	}
	if err := h.Auth.ResendOTP(c.Request.Context(), req.Email); err != nil {
		controller.WriteError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: service.MsgOTPResent})
}

// VerifyEmailHandler checks the verification code and logs the user in
// @Summary Verify email
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body VerifyEmailRequest true "Email and code"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid or expired OTP"
// @Failure 500 {object} utilities.ErrorResponse "Server error"
// @Router /auth/verify-email [post]
func (h *LocalAuthHandler) VerifyEmailHandler(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BindError(c, err)
		return
	}
	resp, err := h.Auth.VerifyEmail(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		h.Audit.LogAuthAttempt("warning", AuthTypeVerify, StatusFail, req.Email, err.Error())
		controller.WriteError(c, h.Log, err)
		return
	}
	h.Audit.LogAuthAttempt("info", AuthTypeVerify, StatusSuccess, req.Email, "")
	c.JSON(http.StatusOK, resp)
}

// LoginHandler exchanges credentials for an access token
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid credentials"
// @Failure 403 {object} utilities.ErrorResponse "Account not verified"
// @Failure 500 {object} utilities.ErrorResponse "Server error"
// @Router /auth/login [post]
func (h *LocalAuthHandler) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BindError(c, err)
		return
	}
	resp, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.Audit.LogAuthAttempt("warning", AuthTypeLocal, StatusFail, req.Email, err.Error())
		controller.WriteError(c, h.Log, err)
		return
	}
	h.Audit.LogAuthAttempt("info", AuthTypeLocal, StatusSuccess, req.Email, "")
	c.JSON(http.StatusOK, resp)
}

// GetProfileHandler returns the caller's account
// @Summary Get profile
// @Tags Auth
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.User
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "User not found"
// @Router /auth/profile [get]
func (h *LocalAuthHandler) GetProfileHandler(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}
	profile, err := h.Auth.Profile(c.Request.Context(), user.ID)
	if err != nil {
		controller.WriteError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfileHandler patches the caller's account
// @Summary Update profile
// @Description Missing or blank fields keep their current value. A new picture replaces the old one.
// @Tags Auth
// @Accept multipart/form-data
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param name formData string false "Full name"
// @Param skills formData string false "Comma separated skills"
// @Param experience formData string false "Experience"
// @Param projectsCompleted formData int false "Completed project count"
// @Param githubUrl formData string false "GitHub profile URL"
// @Param profilePicture formData file false "JPG or PNG avatar"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid body or rejected upload"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 413 {object} utilities.ErrorResponse "Upload too large"
// @Failure 500 {object} utilities.ErrorResponse "Server error"
// @Router /auth/profile [put]
func (h *LocalAuthHandler) UpdateProfileHandler(c *gin.Context) {
	user, ok := controller.CurrentUser(c)
	if !ok {
		return
	}

	var form ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		controller.BindError(c, err)
		return
	}
	in := service.UpdateProfileInput{
		Name:       form.Name,
		Skills:     form.Skills,
		Experience: form.Experience,
		GithubURL:  form.GithubURL,
	}
	if form.ProjectsCompleted != nil && *form.ProjectsCompleted != "" {
		n, err := strconv.Atoi(form.ProjectsCompleted.String())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "projectsCompleted must be a number"})
			return
		}
		in.ProjectsCompleted = &n
	}

	mf, err := controller.MultipartForm(c)
	if err != nil {
		controller.BindError(c, err)
		return
	}
	saved, err := h.Uploads.SaveForm(c.Request.Context(), mf, upload.FieldProfilePicture)
	if err != nil {
		controller.WriteError(c, h.Log, err)
		return
	}
	in.ProfilePicturePath = saved[upload.FieldProfilePicture]

	updated, err := h.Auth.UpdateProfile(c.Request.Context(), user.ID, in)
	if err != nil {
		controller.DiscardUploads(h.Cleaner, err, saved)
		controller.WriteError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{Message: service.MsgProfileUpdated, User: updated})
}

// ForgotPasswordHandler mails a reset code if the account exists
// @Summary Forgot password
// @Description Always answers with the same message whether or not the account exists
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body EmailRequest true "Account email"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid body"
// @Failure 429 {object} utilities.ErrorResponse "Too many code requests"
// @Failure 500 {object} utilities.ErrorResponse "Server error"
// @Router /auth/forgot-password [post]
func (h *LocalAuthHandler) ForgotPasswordHandler(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BindError(c, err)
		return
	}
	if err := h.Auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		controller.WriteError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: service.MsgResetSent})
}

// ResetPasswordHandler replaces the password using a reset code
// @Summary Reset password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body service.ResetPasswordInput true "Email, code and new password"
// @Success 200 {object} utilities.MessageResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid body or invalid or expired OTP"
// @Failure 500 {object} utilities.ErrorResponse "Server error"
// @Router /auth/reset-password [post]
func (h *LocalAuthHandler) ResetPasswordHandler(c *gin.Context) {
	var req service.ResetPasswordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		controller.BindError(c, err)
		return
	}
	if err := h.Auth.ResetPassword(c.Request.Context(), req); err != nil {
		h.Audit.LogAuthAttempt("warning", AuthTypeReset, StatusFail, req.Email, err.Error())
		controller.WriteError(c, h.Log, err)
		return
	}
	h.Audit.LogAuthAttempt("info", AuthTypeReset, StatusSuccess, req.Email, "")
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: service.MsgPasswordReset})
}
