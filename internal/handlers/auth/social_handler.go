// internal/handlers/auth/social_handler.go
package auth

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"

	"resumeforge-service/internal/domain/auth"
	"resumeforge-service/internal/pkg/apperror"
	"resumeforge-service/internal/pkg/response"
	authUsecase "resumeforge-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SocialHandler drives the hosted-UI authorization-code flow. The GET
// callback is browser-facing and answers with redirects; the POST variant is
// for SPA clients that capture the code themselves and want JSON.
type SocialHandler struct {
	authService *authUsecase.AuthService
	frontendURL string
	logger      *zap.Logger
}

func NewSocialHandler(authService *authUsecase.AuthService, frontendURL string, logger *zap.Logger) *SocialHandler {
	return &SocialHandler{
		authService: authService,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// AuthURL handles GET /auth/social/:provider.
func (h *SocialHandler) AuthURL(c *gin.Context) {
	provider := c.Param("provider")

	resp, err := h.authService.SocialAuthURL(provider, c.Query("redirect_uri"))
	if err != nil {
		h.logger.Warn("social url build failed", zap.String("provider", provider), zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "authorization url", resp)
}

// Callback handles GET /auth/callback: the browser lands here from the
// hosted UI. Tokens are delivered to the frontend in the URL fragment, never
// the query string, so they stay out of server logs and Referer headers.
func (h *SocialHandler) Callback(c *gin.Context) {
	if provErr := c.Query("error"); provErr != "" {
		h.logger.Warn("social login denied upstream",
			zap.String("error", provErr),
			zap.String("description", c.Query("error_description")),
		)
		h.redirectError(c, "SocialAuthError", "the sign-in was cancelled or rejected")
		return
	}

	code := c.Query("code")
	if code == "" {
		h.redirectError(c, "MissingCode", "no authorization code was returned")
		return
	}

	resp, err := h.authService.HandleCallback(c.Request.Context(), code, "", deviceInfo(c))
	if err != nil {
		h.logger.Warn("social callback failed", zap.Error(err))
		h.redirectError(c, apperror.CodeOf(err), safeMessage(err))
		return
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("failed to encode callback payload", zap.Error(err))
		h.redirectError(c, "InternalError", "sign-in could not be completed, please try again")
		return
	}

	fragment := base64.RawURLEncoding.EncodeToString(payload)
	c.Redirect(http.StatusFound, h.frontendURL+"/auth/complete#auth="+fragment)
}

// safeMessage keeps raw upstream detail out of the redirect.
func safeMessage(err error) string {
	switch apperror.KindOf(err) {
	case apperror.KindUpstream, apperror.KindInternal:
		return "sign-in could not be completed, please try again"
	default:
		return apperror.MessageOf(err)
	}
}

// CallbackJSON handles POST /auth/callback for clients that exchange the
// code over XHR instead of a browser redirect.
func (h *SocialHandler) CallbackJSON(c *gin.Context) {
	var req auth.CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	resp, err := h.authService.HandleCallback(c.Request.Context(), req.Code, req.RedirectURI, deviceInfo(c))
	if err != nil {
		h.logger.Warn("social code exchange failed", zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", resp)
}

func (h *SocialHandler) redirectError(c *gin.Context, code, message string) {
	q := url.Values{}
	q.Set("error", code)
	q.Set("message", message)
	c.Redirect(http.StatusFound, h.frontendURL+"/auth/error?"+q.Encode())
}
