// internal/app/router.go
package app

import (
	authHandler "resumeforge-service/internal/handlers/auth"
	resumeHandler "resumeforge-service/internal/handlers/resume"
	"resumeforge-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler    *authHandler.AuthHandler
	SocialHandler  *authHandler.SocialHandler
	ResumeHandler  *resumeHandler.ResumeHandler
	AuthMiddleware *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/signup", h.AuthHandler.SignUp)
		authPublic.POST("/verify", h.AuthHandler.Verify)
		authPublic.POST("/signin", h.AuthHandler.SignIn)
		authPublic.POST("/refresh", h.AuthHandler.Refresh)
		authPublic.GET("/social/:provider", h.SocialHandler.AuthURL)
		authPublic.GET("/callback", h.SocialHandler.Callback)
		authPublic.POST("/callback", h.SocialHandler.CallbackJSON)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/signout", h.AuthHandler.SignOut)
		authProtected.GET("/sessions", h.AuthHandler.Sessions)
		authProtected.GET("/me", h.AuthHandler.Me)
	}

	// ==================== Documents ====================
	resumes := api.Group("/resumes")
	resumes.Use(h.AuthMiddleware.Auth(), h.AuthMiddleware.ResolveUser())
	{
		resumes.POST("", h.ResumeHandler.Create)
		resumes.GET("", h.ResumeHandler.List)
		resumes.GET("/:id", h.ResumeHandler.Get)
		resumes.PUT("/:id", h.ResumeHandler.Update)
		resumes.DELETE("/:id", h.ResumeHandler.Delete)
	}
}
