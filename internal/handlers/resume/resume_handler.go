// internal/handlers/resume/resume_handler.go
package resume

import (
	"net/http"

	"resumeforge-service/internal/domain/resume"
	"resumeforge-service/internal/middleware"
	"resumeforge-service/internal/pkg/response"
	resumeUsecase "resumeforge-service/internal/service/resume"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ResumeHandler struct {
	resumeService *resumeUsecase.ResumeService
	logger        *zap.Logger
}

func NewResumeHandler(resumeService *resumeUsecase.ResumeService, logger *zap.Logger) *ResumeHandler {
	return &ResumeHandler{
		resumeService: resumeService,
		logger:        logger,
	}
}

// Create handles POST /resumes.
func (h *ResumeHandler) Create(c *gin.Context) {
	var req resume.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	doc, err := h.resumeService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		h.logger.Error("failed to create document", zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "document created", doc)
}

// Get handles GET /resumes/:id.
func (h *ResumeHandler) Get(c *gin.Context) {
	doc, err := h.resumeService.Get(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "document", doc)
}

// List handles GET /resumes.
func (h *ResumeHandler) List(c *gin.Context) {
	docs, err := h.resumeService.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "documents", gin.H{"documents": docs})
}

// Update handles PUT /resumes/:id.
func (h *ResumeHandler) Update(c *gin.Context) {
	var req resume.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	doc, err := h.resumeService.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "document updated", doc)
}

// Delete handles DELETE /resumes/:id.
func (h *ResumeHandler) Delete(c *gin.Context) {
	if err := h.resumeService.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "document deleted", nil)
}
