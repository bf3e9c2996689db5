// internal/domain/resume/dto.go
package resume

import "encoding/json"

// CreateRequest for POST /resumes.
type CreateRequest struct {
	Title      string          `json:"title" binding:"required"`
	Kind       string          `json:"kind" binding:"required,oneof=resume cover_letter"`
	TemplateID string          `json:"template_id"`
	Skills     []string        `json:"skills"`
	Content    json.RawMessage `json:"content"`
}

// UpdateRequest for PUT /resumes/:id. Nil fields are left unchanged.
type UpdateRequest struct {
	Title      *string         `json:"title"`
	TemplateID *string         `json:"template_id"`
	Skills     []string        `json:"skills"`
	Content    json.RawMessage `json:"content"`
}
