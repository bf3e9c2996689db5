// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"resumeforge-service/internal/domain/auth"
	"resumeforge-service/internal/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, external_subject, email, name, plan, created_at, updated_at, deleted_at`

func scanUser(row pgx.Row) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.ExternalSubject, &u.Email, &u.Name, &u.Plan,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// FindByID retrieves a user by internal id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// FindBySubject retrieves a user by external-IdP subject id.
func (r *UserRepository) FindBySubject(ctx context.Context, subject string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE external_subject = $1 AND deleted_at IS NULL`
	return scanUser(r.db.QueryRow(ctx, query, subject))
}

// CreateIfAbsent inserts the user unless a row already exists for the same
// external subject. Two near-simultaneous first logins both land on one row:
// the losing writer falls back to reading the winner's insert.
func (r *UserRepository) CreateIfAbsent(ctx context.Context, u *auth.User) (*auth.User, error) {
	query := `
		INSERT INTO users (id, external_subject, email, name, plan)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (external_subject) DO NOTHING
		RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRow(ctx, query, u.ID, u.ExternalSubject, u.Email, u.Name, u.Plan))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, apperror.ErrUserNotFound) {
		return nil, err
	}

	// Conflict: another writer created the row first.
	return r.FindBySubject(ctx, u.ExternalSubject)
}
