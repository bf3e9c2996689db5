// internal/domain/resume/entity.go
package resume

import (
	"time"

	"github.com/lib/pq"
)

// Document kinds.
const (
	KindResume      = "resume"
	KindCoverLetter = "cover_letter"
)

// Resume is a stored document (resume or cover letter). Content is an
// opaque JSON blob owned by the frontend's template engine.
type Resume struct {
	ID         string         `json:"id" db:"id"`
	UserID     string         `json:"user_id" db:"user_id"`
	Title      string         `json:"title" db:"title"`
	Kind       string         `json:"kind" db:"kind"`
	TemplateID string         `json:"template_id" db:"template_id"`
	Skills     pq.StringArray `json:"skills" db:"skills"`
	Content    []byte         `json:"content" db:"content"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// Stats are per-user document counts surfaced on the profile endpoint.
type Stats struct {
	Resumes      int `json:"resumes"`
	CoverLetters int `json:"coverLetters"`
}
