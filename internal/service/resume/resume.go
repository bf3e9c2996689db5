// internal/service/resume/resume.go
package resume

import (
	"context"

	"resumeforge-service/internal/domain/resume"
	"resumeforge-service/internal/pkg/apperror"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Store is the persistence contract for documents.
type Store interface {
	Insert(ctx context.Context, doc *resume.Resume) error
	GetByID(ctx context.Context, id string) (*resume.Resume, error)
	ListByUser(ctx context.Context, userID string) ([]*resume.Resume, error)
	Update(ctx context.Context, doc *resume.Resume) error
	Delete(ctx context.Context, id string) error
	CountByUser(ctx context.Context, userID string) (*resume.Stats, error)
}

// ResumeService owns document CRUD. Every operation is scoped to the owning
// user; a document belonging to someone else reads as NotFound.
type ResumeService struct {
	store  Store
	logger *zap.Logger
}

func NewResumeService(store Store, logger *zap.Logger) *ResumeService {
	return &ResumeService{store: store, logger: logger}
}

func (s *ResumeService) Create(ctx context.Context, userID string, req resume.CreateRequest) (*resume.Resume, error) {
	doc := &resume.Resume{
		ID:         ulid.Make().String(),
		UserID:     userID,
		Title:      req.Title,
		Kind:       req.Kind,
		TemplateID: req.TemplateID,
		Skills:     req.Skills,
		Content:    req.Content,
	}
	if doc.Content == nil {
		doc.Content = []byte("{}")
	}
	if err := s.store.Insert(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ResumeService) Get(ctx context.Context, userID, id string) (*resume.Resume, error) {
	return s.ownedDoc(ctx, userID, id)
}

func (s *ResumeService) List(ctx context.Context, userID string) ([]*resume.Resume, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *ResumeService) Update(ctx context.Context, userID, id string, req resume.UpdateRequest) (*resume.Resume, error) {
	doc, err := s.ownedDoc(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.TemplateID != nil {
		doc.TemplateID = *req.TemplateID
	}
	if req.Skills != nil {
		doc.Skills = req.Skills
	}
	if req.Content != nil {
		doc.Content = req.Content
	}

	if err := s.store.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ResumeService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.ownedDoc(ctx, userID, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// ownedDoc fetches a document and hides other users' documents behind
// NotFound rather than Forbidden, so ids cannot be probed.
func (s *ResumeService) ownedDoc(ctx context.Context, userID, id string) (*resume.Resume, error) {
	doc, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, apperror.ErrNotFound
	}
	return doc, nil
}
