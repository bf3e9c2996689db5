// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"resumeforge-service/internal/domain/auth"
	"resumeforge-service/internal/middleware"
	"resumeforge-service/internal/pkg/response"
	authUsecase "resumeforge-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// deviceInfo assembles the client-declared device descriptor from headers.
func deviceInfo(c *gin.Context) auth.DeviceInfo {
	return auth.DeviceInfo{
		DeviceID:   c.GetHeader("X-Device-Id"),
		DeviceName: c.GetHeader("X-Device-Name"),
		DeviceType: c.GetHeader("X-Device-Type"),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
	}
}

// SignUp handles POST /auth/signup (public).
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req auth.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	resp, err := h.authService.SignUp(c.Request.Context(), c.ClientIP(), req)
	if err != nil {
		h.logger.Warn("signup failed", zap.String("email", req.Email), zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "signup successful, confirm your email", resp)
}

// Verify handles POST /auth/verify (public).
func (h *AuthHandler) Verify(c *gin.Context) {
	var req auth.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	if err := h.authService.ConfirmSignUp(c.Request.Context(), req); err != nil {
		h.logger.Warn("signup confirmation failed", zap.String("email", req.Email), zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "email confirmed", nil)
}

// SignIn handles POST /auth/signin (public).
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req auth.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	resp, err := h.authService.PasswordLogin(c.Request.Context(), c.ClientIP(), req, deviceInfo(c))
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", c.ClientIP()),
			zap.Error(err),
		)
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", resp)
}

// Refresh handles POST /auth/refresh (public; authenticates by credential).
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	resp, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.logger.Warn("token refresh failed", zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "tokens refreshed", resp)
}

// SignOut handles POST /auth/signout (authenticated).
func (h *AuthHandler) SignOut(c *gin.Context) {
	var req auth.SignOutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "ValidationError", err.Error())
			return
		}
	}

	subject := middleware.GetSubject(c)
	accessToken := middleware.GetAccessToken(c)

	revoked, err := h.authService.SignOut(c.Request.Context(), subject, accessToken, c.GetHeader("X-Device-Id"), req)
	if err != nil {
		h.logger.Warn("signout failed", zap.String("subject", subject), zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "signed out", gin.H{"revokedSessions": revoked})
}

// Sessions handles GET /auth/sessions (authenticated).
func (h *AuthHandler) Sessions(c *gin.Context) {
	subject := middleware.GetSubject(c)

	items, err := h.authService.Sessions(c.Request.Context(), subject, c.GetHeader("X-Device-Id"))
	if err != nil {
		h.logger.Error("failed to list sessions", zap.String("subject", subject), zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "active sessions", gin.H{"sessions": items})
}

// Me handles GET /auth/me (authenticated).
func (h *AuthHandler) Me(c *gin.Context) {
	subject := middleware.GetSubject(c)

	resp, err := h.authService.Me(c.Request.Context(), subject)
	if err != nil {
		h.logger.Warn("profile lookup failed", zap.String("subject", subject), zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "profile", resp)
}
