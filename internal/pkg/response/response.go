// internal/pkg/response/response.go
package response

import (
	"net/http"

	"resumeforge-service/internal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string) {
	c.Abort()
	c.JSON(status, Response{
		Success: false,
		Message: message,
		Code:    code,
	})
}

// FromError maps a taxonomy error to an HTTP response. Upstream and internal
// failures keep their stable code for support correlation but the message is
// replaced with a generic one; callers log the full error server-side.
func FromError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	code := apperror.CodeOf(err)

	switch kind {
	case apperror.KindValidation:
		Error(c, http.StatusBadRequest, code, apperror.MessageOf(err))
	case apperror.KindAuthentication:
		Error(c, http.StatusUnauthorized, code, apperror.MessageOf(err))
	case apperror.KindAuthorization:
		Error(c, http.StatusForbidden, code, apperror.MessageOf(err))
	case apperror.KindConflict:
		Error(c, http.StatusConflict, code, apperror.MessageOf(err))
	case apperror.KindNotFound:
		Error(c, http.StatusNotFound, code, apperror.MessageOf(err))
	default:
		Error(c, http.StatusInternalServerError, code, "something went wrong, please try again")
	}
}
