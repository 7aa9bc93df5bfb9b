package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	// Init swagger doc
	_ "SeniorJunior-backend/docs"

	"SeniorJunior-backend/internal/auth"
	"SeniorJunior-backend/internal/controller/application"
	"SeniorJunior-backend/internal/controller/file"
	"SeniorJunior-backend/internal/controller/project"
	"SeniorJunior-backend/internal/middleware"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/service"
	"SeniorJunior-backend/internal/upload"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *Server) RegisterRoutes() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(s.Log), middleware.SafeHeader(middleware.HeaderPolicy{
		HSTS:          s.Config.Production(),
		CachePrefixes: []string{"/" + upload.PathPrefix + "/"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.Config.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	deps := service.Deps{
		Store:          s.Store,
		Mailer:         s.Mailer,
		Tokens:         s.Tokens,
		Throttle:       s.Throttle,
		Cleaner:        s.Cleaner,
		Log:            s.Log,
		OTPTTL:         s.Config.OTPTTL,
		WithdrawWindow: s.Config.WithdrawWindow,
	}
	lAuth := auth.NewLocalAuthHandler(service.NewAuthService(deps), s.Uploads, s.Cleaner, s.Audit, s.Log)
	logout := auth.NewLogoutController(s.Blacklist, s.Audit, s.Log)
	projects := project.NewProjectController(service.NewProjectService(deps), s.Log)
	applications := application.NewApplicationController(service.NewApplicationService(deps), s.Uploads, s.Cleaner, s.Log)
	files := file.NewFileController(s.Uploads, s.Log)

	requireAuth := middleware.RequireAuth(s.Store, s.Tokens, s.Blacklist)
	maxFile := s.Config.UploadMaxBytes

	r.GET("/health", s.healthHandler)
	r.GET("/uploads/*filepath", files.GetFile)

	api := r.Group("/api")
	{
		authRoute := api.Group("/auth")
		authRoute.Use(middleware.RateLimiterMiddleware(rateLimit(s.Config.RateLimitPerSecond), s.Redis))
		{
			authRoute.POST("register", middleware.SizeLimit(maxFile, 2), lAuth.RegisterHandler)
			authRoute.POST("resend-otp", lAuth.ResendOTPHandler)
			authRoute.POST("verify-email", lAuth.VerifyEmailHandler)
			authRoute.POST("login", lAuth.LoginHandler)
			authRoute.POST("forgot-password", lAuth.ForgotPasswordHandler)
			authRoute.POST("reset-password", lAuth.ResetPasswordHandler)

			authRoute.GET("profile", requireAuth, lAuth.GetProfileHandler)
			authRoute.PUT("profile", requireAuth, middleware.SizeLimit(maxFile, 1), lAuth.UpdateProfileHandler)
			authRoute.POST("logout", requireAuth, logout.LogoutHandler)
		}

		projectRoute := api.Group("/projects")
		{
			projectRoute.GET("", projects.ListOpen)

			needSenior := projectRoute.Group("", requireAuth, middleware.CheckRole(model.RoleSenior))
			needSenior.GET("my-projects", projects.ListMine)
			needSenior.GET("my-active-projects", projects.ListActive)
			needSenior.POST("", projects.Create)
			needSenior.PUT(":id", projects.Update)
			needSenior.DELETE(":id", projects.Delete)

			projectRoute.GET("junior-projects", requireAuth, middleware.CheckRole(model.RoleJunior), projects.ListForJunior)
		}

		applicationRoute := api.Group("/applications", requireAuth)
		{
			needJunior := applicationRoute.Group("", middleware.CheckRole(model.RoleJunior))
			needJunior.POST("", middleware.SizeLimit(maxFile, 1), applications.ApplicationHandler)
			needJunior.GET("my-applications", applications.ListMine)
			needJunior.DELETE(":id", applications.Withdraw)

			needSenior := applicationRoute.Group("", middleware.CheckRole(model.RoleSenior))
			needSenior.GET("project/:projectId", applications.ListForProject)
			needSenior.PUT(":id", applications.UpdateStatus)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func rateLimit(perSecond int) uint {
	if perSecond <= 0 {
		return middleware.DefaultRequestsPerSecond
	}
	return uint(perSecond)
}

// healthHandler reports the store status
// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (s *Server) healthHandler(c *gin.Context) {
	stats := s.Store.Health()
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}
