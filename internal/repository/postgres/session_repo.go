// internal/repository/postgres/session_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resumeforge-service/internal/domain/auth"
	"resumeforge-service/internal/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository is a pure keyed store for device sessions. Quota and
// expiry policy live in the service layer, not here.
type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, device_id, device_name, device_type, refresh_credential,
	last_active_at, expires_at, is_active, ip_address, user_agent, created_at, updated_at`

func scanSession(row pgx.Row) (*auth.DeviceSession, error) {
	var s auth.DeviceSession
	err := row.Scan(&s.ID, &s.UserID, &s.DeviceID, &s.DeviceName, &s.DeviceType,
		&s.RefreshCredential, &s.LastActiveAt, &s.ExpiresAt, &s.IsActive,
		&s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*auth.DeviceSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM device_sessions WHERE id = $1`
	return scanSession(r.db.QueryRow(ctx, query, id))
}

func (r *SessionRepository) GetByDeviceID(ctx context.Context, deviceID string) (*auth.DeviceSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM device_sessions WHERE device_id = $1`
	return scanSession(r.db.QueryRow(ctx, query, deviceID))
}

// GetByRefreshCredential looks up the session holding cred. Credentials are
// unique across active sessions; inactive rows keep their last credential
// for history but are still returned so callers can distinguish Inactive
// from NotFound.
func (r *SessionRepository) GetByRefreshCredential(ctx context.Context, cred string) (*auth.DeviceSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM device_sessions
		WHERE refresh_credential = $1
		ORDER BY is_active DESC, last_active_at DESC
		LIMIT 1`
	return scanSession(r.db.QueryRow(ctx, query, cred))
}

func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*auth.DeviceSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM device_sessions
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY last_active_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*auth.DeviceSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepository) Insert(ctx context.Context, s *auth.DeviceSession) error {
	query := `
		INSERT INTO device_sessions (
			id, user_id, device_id, device_name, device_type, refresh_credential,
			last_active_at, expires_at, is_active, ip_address, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	return r.db.QueryRow(ctx, query,
		s.ID, s.UserID, s.DeviceID, s.DeviceName, s.DeviceType, s.RefreshCredential,
		s.LastActiveAt, s.ExpiresAt, s.IsActive, s.IPAddress, s.UserAgent,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

// Update applies a partial patch to one session row.
func (r *SessionRepository) Update(ctx context.Context, id string, patch auth.SessionPatch) error {
	set := []string{"updated_at = NOW()"}
	args := []interface{}{id}

	add := func(col string, v interface{}) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.RefreshCredential != nil {
		add("refresh_credential", *patch.RefreshCredential)
	}
	if patch.DeviceName != nil {
		add("device_name", *patch.DeviceName)
	}
	if patch.DeviceType != nil {
		add("device_type", *patch.DeviceType)
	}
	if patch.LastActiveAt != nil {
		add("last_active_at", *patch.LastActiveAt)
	}
	if patch.ExpiresAt != nil {
		add("expires_at", *patch.ExpiresAt)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	if patch.IPAddress != nil {
		add("ip_address", *patch.IPAddress)
	}
	if patch.UserAgent != nil {
		add("user_agent", *patch.UserAgent)
	}

	query := fmt.Sprintf("UPDATE device_sessions SET %s WHERE id = $1", strings.Join(set, ", "))
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) MarkInactive(ctx context.Context, id string) error {
	query := `UPDATE device_sessions SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) MarkManyInactive(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE device_sessions SET is_active = FALSE, updated_at = NOW() WHERE id = ANY($1)`
	_, err := r.db.Exec(ctx, query, ids)
	return err
}

// ExpireActiveBefore flips every active session whose expiry is in the past.
// Used by the out-of-band sweeper, not by the request path.
func (r *SessionRepository) ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE device_sessions SET is_active = FALSE, updated_at = NOW()
		WHERE is_active = TRUE AND expires_at < $1`
	tag, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
