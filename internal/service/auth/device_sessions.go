// internal/service/auth/device_sessions.go
package auth

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"resumeforge-service/internal/domain/auth"
	"resumeforge-service/internal/pkg/apperror"
	"resumeforge-service/internal/pkg/session"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// SessionStore is the persistence contract the manager runs on. Implemented
// by postgres.SessionRepository; tests substitute an in-memory fake.
type SessionStore interface {
	Get(ctx context.Context, id string) (*auth.DeviceSession, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*auth.DeviceSession, error)
	GetByRefreshCredential(ctx context.Context, cred string) (*auth.DeviceSession, error)
	ListActiveByUser(ctx context.Context, userID string) ([]*auth.DeviceSession, error)
	Insert(ctx context.Context, s *auth.DeviceSession) error
	Update(ctx context.Context, id string, patch auth.SessionPatch) error
	MarkInactive(ctx context.Context, id string) error
	MarkManyInactive(ctx context.Context, ids []string) error
}

// DeviceSessionManager enforces the per-user device quota and the session
// lifecycle on top of the plain keyed store.
type DeviceSessionManager struct {
	store    SessionStore
	locker   session.Locker
	cap      int
	validity time.Duration
	logger   *zap.Logger
}

func NewDeviceSessionManager(store SessionStore, locker session.Locker, deviceCap int, validity time.Duration, logger *zap.Logger) *DeviceSessionManager {
	if deviceCap <= 0 {
		deviceCap = 3
	}
	if validity <= 0 {
		validity = 30 * 24 * time.Hour
	}
	return &DeviceSessionManager{
		store:    store,
		locker:   locker,
		cap:      deviceCap,
		validity: validity,
		logger:   logger,
	}
}

// CreateOrRefreshSession records a login from a device. A login from a known
// device id updates that session in place (credential rotated, expiry
// extended, reactivated if needed) and never counts against the quota, so
// reactivating an evicted device can leave the user one over the cap until
// the next new-device login corrects it. A new device first evicts the
// least-recently-active sessions until the user is under the cap, then
// inserts. Evicted sessions are returned for user notification; rows are
// never deleted.
//
// The eviction-and-insert read-modify-write is serialized per user through
// the locker so two concurrent logins cannot both see a stale count.
func (m *DeviceSessionManager) CreateOrRefreshSession(ctx context.Context, userID, newCred string, info auth.DeviceInfo) (*auth.DeviceSession, []*auth.DeviceSession, error) {
	info.Normalize()

	var (
		created *auth.DeviceSession
		evicted []*auth.DeviceSession
	)

	err := m.locker.WithUserLock(ctx, userID, func() error {
		var err error
		created, evicted, err = m.createOrRefreshLocked(ctx, userID, newCred, info)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return created, evicted, nil
}

func (m *DeviceSessionManager) createOrRefreshLocked(ctx context.Context, userID, newCred string, info auth.DeviceInfo) (*auth.DeviceSession, []*auth.DeviceSession, error) {
	now := time.Now()
	expiry := now.Add(m.validity)

	deviceID := info.DeviceID
	if deviceID != "" {
		existing, err := m.store.GetByDeviceID(ctx, deviceID)
		switch {
		case err == nil && existing.UserID == userID:
			// Same device logging in again: update in place, no eviction.
			return m.reuseSession(ctx, existing, newCred, info, now, expiry)
		case err == nil:
			// Device id belongs to another user's session. Do not let a
			// client-chosen id disturb someone else's slot; issue a fresh one.
			m.logger.Warn("device id collision across users, reissuing",
				zap.String("device_id", deviceID))
			deviceID = ""
		case !errors.Is(err, apperror.ErrSessionNotFound):
			return nil, nil, err
		}
	}
	if deviceID == "" {
		deviceID = ulid.Make().String()
	}

	evicted, err := m.enforceQuota(ctx, userID)
	if err != nil {
		// Quota eviction is a side effect of login, never a precondition.
		m.logger.Error("device quota enforcement failed", zap.String("user_id", userID), zap.Error(err))
		evicted = nil
	}

	s := &auth.DeviceSession{
		ID:                ulid.Make().String(),
		UserID:            userID,
		DeviceID:          deviceID,
		DeviceName:        info.DeviceName,
		DeviceType:        info.DeviceType,
		RefreshCredential: newCred,
		LastActiveAt:      now,
		ExpiresAt:         expiry,
		IsActive:          true,
		IPAddress:         nullString(info.IPAddress),
		UserAgent:         nullString(info.UserAgent),
	}
	if err := m.store.Insert(ctx, s); err != nil {
		return nil, nil, err
	}
	return s, evicted, nil
}

func (m *DeviceSessionManager) reuseSession(ctx context.Context, s *auth.DeviceSession, newCred string, info auth.DeviceInfo, now, expiry time.Time) (*auth.DeviceSession, []*auth.DeviceSession, error) {
	active := true
	patch := auth.SessionPatch{
		RefreshCredential: &newCred,
		DeviceName:        &info.DeviceName,
		DeviceType:        &info.DeviceType,
		LastActiveAt:      &now,
		ExpiresAt:         &expiry,
		IsActive:          &active,
	}
	if info.IPAddress != "" {
		patch.IPAddress = &info.IPAddress
	}
	if info.UserAgent != "" {
		patch.UserAgent = &info.UserAgent
	}
	if err := m.store.Update(ctx, s.ID, patch); err != nil {
		return nil, nil, err
	}

	s.RefreshCredential = newCred
	s.DeviceName = info.DeviceName
	s.DeviceType = info.DeviceType
	s.LastActiveAt = now
	s.ExpiresAt = expiry
	s.IsActive = true
	return s, nil, nil
}

// enforceQuota flips the least-recently-active sessions inactive until the
// user has room for one more device.
func (m *DeviceSessionManager) enforceQuota(ctx context.Context, userID string) ([]*auth.DeviceSession, error) {
	active, err := m.store.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(active) < m.cap {
		return nil, nil
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].LastActiveAt.Before(active[j].LastActiveAt)
	})

	excess := len(active) - (m.cap - 1)
	victims := active[:excess]

	ids := make([]string, 0, len(victims))
	for _, v := range victims {
		ids = append(ids, v.ID)
	}
	if err := m.store.MarkManyInactive(ctx, ids); err != nil {
		return nil, err
	}
	for _, v := range victims {
		v.IsActive = false
	}
	return victims, nil
}

// ValidateAndTouch checks a refresh credential against the stored session.
// Passing the expiry marks the session inactive so it can never resurrect,
// even when re-checked immediately after. Rotation happens separately once
// the identity bridge has produced a new credential.
func (m *DeviceSessionManager) ValidateAndTouch(ctx context.Context, cred string) (*auth.DeviceSession, error) {
	s, err := m.store.GetByRefreshCredential(ctx, cred)
	if err != nil {
		return nil, err
	}
	if !s.IsActive {
		return nil, apperror.ErrSessionInactive
	}
	if time.Now().After(s.ExpiresAt) {
		if err := m.store.MarkInactive(ctx, s.ID); err != nil {
			m.logger.Error("failed to mark expired session inactive",
				zap.String("session_id", s.ID), zap.Error(err))
		}
		return nil, apperror.ErrSessionExpired
	}

	now := time.Now()
	if err := m.store.Update(ctx, s.ID, auth.SessionPatch{LastActiveAt: &now}); err != nil {
		return nil, err
	}
	s.LastActiveAt = now
	return s, nil
}

// RotateCredential swaps in the credential produced by a successful upstream
// refresh and extends the session window.
func (m *DeviceSessionManager) RotateCredential(ctx context.Context, sessionID, newCred string) error {
	now := time.Now()
	expiry := now.Add(m.validity)
	return m.store.Update(ctx, sessionID, auth.SessionPatch{
		RefreshCredential: &newCred,
		LastActiveAt:      &now,
		ExpiresAt:         &expiry,
	})
}

// Revoke marks one session inactive. Revoking an already-inactive session is
// a no-op, not an error; an unknown session id is NotFound, same as Update.
func (m *DeviceSessionManager) Revoke(ctx context.Context, sessionID string) error {
	return m.store.MarkInactive(ctx, sessionID)
}

// RevokeByDeviceID revokes the session bound to a device id. Unknown device
// ids are NotFound; an inactive session is a successful no-op.
func (m *DeviceSessionManager) RevokeByDeviceID(ctx context.Context, userID, deviceID string) error {
	s, err := m.store.GetByDeviceID(ctx, deviceID)
	if err != nil {
		return err
	}
	if s.UserID != userID {
		return apperror.ErrSessionNotFound
	}
	if !s.IsActive {
		return nil
	}
	return m.store.MarkInactive(ctx, s.ID)
}

// RevokeAll marks every active session for the user inactive and reports how
// many were affected.
func (m *DeviceSessionManager) RevokeAll(ctx context.Context, userID string) (int, error) {
	active, err := m.store.ListActiveByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(active))
	for _, s := range active {
		ids = append(ids, s.ID)
	}
	if err := m.store.MarkManyInactive(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// ListSessions returns the user's active sessions, most recently active
// first.
func (m *DeviceSessionManager) ListSessions(ctx context.Context, userID string) ([]*auth.DeviceSession, error) {
	active, err := m.store.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].LastActiveAt.After(active[j].LastActiveAt)
	})
	return active, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
