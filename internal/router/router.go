package router

import (
	"github.com/BailinYe/Resume-Modifier-sub002/config"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/app/controller"
	"github.com/BailinYe/Resume-Modifier-sub002/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	authController   *controller.AuthController
	resumeController *controller.ResumeController
	uploadController *controller.UploadController
	auditController  *controller.AuditController
	authMiddleware   *middleware.AuthMiddleware
	config           *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	resumeController *controller.ResumeController,
	uploadController *controller.UploadController,
	auditController *controller.AuditController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:   authController,
		resumeController: resumeController,
		uploadController: uploadController,
		auditController:  auditController,
		authMiddleware:   authMiddleware,
		config:           cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Resume Modifier API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", r.authController.Logout)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/forgot-password", r.authController.ForgotPassword)
			auth.POST("/validate-reset-token", r.authController.ValidateResetToken)
			auth.POST("/reset-password", r.authController.ResetPassword)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateMe)
		}

		resumes := v1.Group("/resumes", r.authMiddleware.Authenticate())
		{
			resumes.POST("", r.resumeController.Create)
			resumes.GET("", r.resumeController.List)
			resumes.GET("/:id", r.resumeController.Get)
			resumes.PUT("/:id", r.resumeController.Update)
			resumes.DELETE("/:id", r.resumeController.Delete)
			resumes.POST("/:id/parse", r.resumeController.Parse)
			resumes.POST("/:id/score", r.resumeController.Score)
			resumes.POST("/:id/export", r.resumeController.Export)
		}

		uploads := v1.Group("/uploads", r.authMiddleware.Authenticate())
		{
			uploads.POST("/presigned-url", r.uploadController.GeneratePresignedURL)
		}

		admin := v1.Group("/admin",
			r.authMiddleware.Authenticate(),
			r.authMiddleware.RequireAdmin(),
		)
		{
			admin.GET("/audit-events", r.auditController.List)
			admin.GET("/audit-events/export", r.auditController.Export)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
