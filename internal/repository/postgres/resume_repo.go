// internal/repository/postgres/resume_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"resumeforge-service/internal/domain/resume"
	"resumeforge-service/internal/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type ResumeRepository struct {
	db *pgxpool.Pool
}

func NewResumeRepository(db *pgxpool.Pool) *ResumeRepository {
	return &ResumeRepository{db: db}
}

const resumeColumns = `id, user_id, title, kind, template_id, skills, content, created_at, updated_at`

func scanResume(row pgx.Row) (*resume.Resume, error) {
	var doc resume.Resume
	err := row.Scan(&doc.ID, &doc.UserID, &doc.Title, &doc.Kind, &doc.TemplateID,
		&doc.Skills, &doc.Content, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan resume: %w", err)
	}
	return &doc, nil
}

func (r *ResumeRepository) Insert(ctx context.Context, doc *resume.Resume) error {
	query := `
		INSERT INTO resumes (id, user_id, title, kind, template_id, skills, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		doc.ID, doc.UserID, doc.Title, doc.Kind, doc.TemplateID,
		pq.StringArray(doc.Skills), doc.Content,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
}

func (r *ResumeRepository) GetByID(ctx context.Context, id string) (*resume.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1`
	return scanResume(r.db.QueryRow(ctx, query, id))
}

func (r *ResumeRepository) ListByUser(ctx context.Context, userID string) ([]*resume.Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var docs []*resume.Resume
	for rows.Next() {
		doc, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *ResumeRepository) Update(ctx context.Context, doc *resume.Resume) error {
	query := `
		UPDATE resumes
		SET title = $2, template_id = $3, skills = $4, content = $5, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, doc.ID, doc.Title, doc.TemplateID,
		pq.StringArray(doc.Skills), doc.Content)
	if err != nil {
		return fmt.Errorf("failed to update resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

func (r *ResumeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrNotFound
	}
	return nil
}

// CountByUser returns per-kind document counts for the profile stats.
func (r *ResumeRepository) CountByUser(ctx context.Context, userID string) (*resume.Stats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE kind = 'resume'),
			COUNT(*) FILTER (WHERE kind = 'cover_letter')
		FROM resumes WHERE user_id = $1`

	var stats resume.Stats
	if err := r.db.QueryRow(ctx, query, userID).Scan(&stats.Resumes, &stats.CoverLetters); err != nil {
		return nil, fmt.Errorf("failed to count resumes: %w", err)
	}
	return &stats, nil
}
