// internal/service/resume/resume_test.go
package resume

import (
	"context"
	"sync"
	"testing"
	"time"

	"resumeforge-service/internal/domain/resume"
	"resumeforge-service/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu   sync.Mutex
	docs map[string]*resume.Resume
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]*resume.Resume{}}
}

func (f *fakeStore) Insert(_ context.Context, doc *resume.Resume) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*resume.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, apperror.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (f *fakeStore) ListByUser(_ context.Context, userID string) ([]*resume.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*resume.Resume
	for _, doc := range f.docs {
		if doc.UserID == userID {
			cp := *doc
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, doc *resume.Resume) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[doc.ID]; !ok {
		return apperror.ErrNotFound
	}
	doc.UpdatedAt = time.Now()
	cp := *doc
	f.docs[doc.ID] = &cp
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[id]; !ok {
		return apperror.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeStore) CountByUser(_ context.Context, userID string) (*resume.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats resume.Stats
	for _, doc := range f.docs {
		if doc.UserID != userID {
			continue
		}
		switch doc.Kind {
		case resume.KindResume:
			stats.Resumes++
		case resume.KindCoverLetter:
			stats.CoverLetters++
		}
	}
	return &stats, nil
}

func newTestService() (*ResumeService, *fakeStore) {
	store := newFakeStore()
	return NewResumeService(store, zap.NewNop()), store
}

func TestCreate(t *testing.T) {
	svc, _ := newTestService()

	doc, err := svc.Create(context.Background(), "u1", resume.CreateRequest{
		Title:      "Backend Engineer",
		Kind:       resume.KindResume,
		TemplateID: "classic",
		Skills:     []string{"go", "postgres"},
		Content:    []byte(`{"sections":[]}`),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "u1", doc.UserID)
	assert.Equal(t, []string{"go", "postgres"}, []string(doc.Skills))
}

func TestCreate_DefaultsEmptyContent(t *testing.T) {
	svc, _ := newTestService()

	doc, err := svc.Create(context.Background(), "u1", resume.CreateRequest{
		Title: "Cover letter", Kind: resume.KindCoverLetter,
	})
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(doc.Content))
}

func TestGet_OtherUsersDocumentIsNotFound(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "u1", resume.CreateRequest{Title: "Mine", Kind: resume.KindResume})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", doc.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "ownership misses must be indistinguishable from absent ids")

	got, err := svc.Get(ctx, "u1", doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestUpdate_AppliesOnlyProvidedFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "u1", resume.CreateRequest{
		Title: "Old title", Kind: resume.KindResume, TemplateID: "classic",
		Skills: []string{"go"},
	})
	require.NoError(t, err)

	newTitle := "New title"
	updated, err := svc.Update(ctx, "u1", doc.ID, resume.UpdateRequest{Title: &newTitle})
	require.NoError(t, err)

	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "classic", updated.TemplateID)
	assert.Equal(t, []string{"go"}, []string(updated.Skills))
}

func TestUpdate_OtherUsersDocument(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "u1", resume.CreateRequest{Title: "Mine", Kind: resume.KindResume})
	require.NoError(t, err)

	title := "Hijacked"
	_, err = svc.Update(ctx, "u2", doc.ID, resume.UpdateRequest{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	doc, err := svc.Create(ctx, "u1", resume.CreateRequest{Title: "Mine", Kind: resume.KindResume})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", doc.ID), apperror.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, "u1", doc.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "u1", doc.ID), apperror.ErrNotFound)
}

func TestList_ScopedToUser(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", resume.CreateRequest{Title: "A", Kind: resume.KindResume})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", resume.CreateRequest{Title: "B", Kind: resume.KindCoverLetter})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", resume.CreateRequest{Title: "C", Kind: resume.KindResume})
	require.NoError(t, err)

	docs, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}
