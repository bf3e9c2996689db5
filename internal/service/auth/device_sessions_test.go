// internal/service/auth/device_sessions_test.go
package auth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"resumeforge-service/internal/domain/auth"
	"resumeforge-service/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSessionStore is an in-memory SessionStore guarded by a mutex so
// concurrency tests can hammer it.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*auth.DeviceSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*auth.DeviceSession{}}
}

func (f *fakeSessionStore) Get(_ context.Context, id string) (*auth.DeviceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) GetByDeviceID(_ context.Context, deviceID string) (*auth.DeviceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.DeviceID == deviceID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperror.ErrSessionNotFound
}

func (f *fakeSessionStore) GetByRefreshCredential(_ context.Context, cred string) (*auth.DeviceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *auth.DeviceSession
	for _, s := range f.sessions {
		if s.RefreshCredential != cred {
			continue
		}
		if best == nil || (s.IsActive && !best.IsActive) {
			best = s
		}
	}
	if best == nil {
		return nil, apperror.ErrSessionNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakeSessionStore) ListActiveByUser(_ context.Context, userID string) ([]*auth.DeviceSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*auth.DeviceSession
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) Insert(_ context.Context, s *auth.DeviceSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessionStore) Update(_ context.Context, id string, patch auth.SessionPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return apperror.ErrSessionNotFound
	}
	if patch.RefreshCredential != nil {
		s.RefreshCredential = *patch.RefreshCredential
	}
	if patch.DeviceName != nil {
		s.DeviceName = *patch.DeviceName
	}
	if patch.DeviceType != nil {
		s.DeviceType = *patch.DeviceType
	}
	if patch.LastActiveAt != nil {
		s.LastActiveAt = *patch.LastActiveAt
	}
	if patch.ExpiresAt != nil {
		s.ExpiresAt = *patch.ExpiresAt
	}
	if patch.IsActive != nil {
		s.IsActive = *patch.IsActive
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (f *fakeSessionStore) MarkInactive(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return apperror.ErrSessionNotFound
	}
	s.IsActive = false
	return nil
}

func (f *fakeSessionStore) MarkManyInactive(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if s, ok := f.sessions[id]; ok {
			s.IsActive = false
		}
	}
	return nil
}

func (f *fakeSessionStore) activeCount(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsActive {
			n++
		}
	}
	return n
}

// serialLock runs sections under a plain mutex, mirroring the per-user Redis
// lease without a Redis.
type serialLock struct{ mu sync.Mutex }

func (l *serialLock) WithUserLock(_ context.Context, _ string, fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn()
}

func newTestManager(store *fakeSessionStore) *DeviceSessionManager {
	return NewDeviceSessionManager(store, &serialLock{}, 3, 30*24*time.Hour, zap.NewNop())
}

func login(t *testing.T, m *DeviceSessionManager, userID, cred, deviceID string) (*auth.DeviceSession, []*auth.DeviceSession) {
	t.Helper()
	s, evicted, err := m.CreateOrRefreshSession(context.Background(), userID, cred, auth.DeviceInfo{
		DeviceID:   deviceID,
		DeviceName: "Test " + deviceID,
		DeviceType: auth.DeviceWeb,
	})
	require.NoError(t, err)
	return s, evicted
}

func TestCreateSession_NewDevice(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	s, evicted := login(t, m, "u1", "cred-1", "dev-1")

	assert.Empty(t, evicted)
	assert.Equal(t, "dev-1", s.DeviceID)
	assert.True(t, s.IsActive)
	assert.Equal(t, "cred-1", s.RefreshCredential)
	assert.Equal(t, 1, store.activeCount("u1"))
}

func TestCreateSession_GeneratesDeviceID(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	s, _ := login(t, m, "u1", "cred-1", "")
	assert.NotEmpty(t, s.DeviceID)
}

func TestCreateSession_SameDeviceUpdatesInPlace(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	first, _ := login(t, m, "u1", "cred-1", "dev-1")
	second, evicted := login(t, m, "u1", "cred-2", "dev-1")

	assert.Empty(t, evicted)
	assert.Equal(t, first.ID, second.ID, "same device must reuse the session row")
	assert.Equal(t, "cred-2", second.RefreshCredential)
	assert.Equal(t, 1, store.activeCount("u1"))
}

func TestCreateSession_SameDeviceReactivatesRevokedSession(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	first, _ := login(t, m, "u1", "cred-1", "dev-1")
	require.NoError(t, m.Revoke(context.Background(), first.ID))
	require.Equal(t, 0, store.activeCount("u1"))

	again, _ := login(t, m, "u1", "cred-2", "dev-1")

	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.IsActive)
	assert.Equal(t, 1, store.activeCount("u1"))
}

func TestCreateSession_EvictsLeastRecentlyActive(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	oldest, _ := login(t, m, "u1", "cred-1", "dev-1")
	login(t, m, "u1", "cred-2", "dev-2")
	login(t, m, "u1", "cred-3", "dev-3")

	// Stagger last_active so dev-1 is unambiguously the oldest.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, store.Update(context.Background(), oldest.ID, auth.SessionPatch{LastActiveAt: &past}))

	_, evicted := login(t, m, "u1", "cred-4", "dev-4")

	require.Len(t, evicted, 1)
	assert.Equal(t, "dev-1", evicted[0].DeviceID)
	assert.False(t, evicted[0].IsActive)
	assert.Equal(t, 3, store.activeCount("u1"))

	got, err := store.Get(context.Background(), oldest.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive, "evicted session must be flipped inactive, not deleted")
}

func TestCreateSession_ReactivationOvershootsUntilNextNewDevice(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)
	ctx := context.Background()

	oldest, _ := login(t, m, "u1", "cred-1", "dev-1")
	login(t, m, "u1", "cred-2", "dev-2")
	login(t, m, "u1", "cred-3", "dev-3")

	past := time.Now().Add(-time.Hour)
	require.NoError(t, store.Update(ctx, oldest.ID, auth.SessionPatch{LastActiveAt: &past}))

	_, evicted := login(t, m, "u1", "cred-4", "dev-4")
	require.Len(t, evicted, 1)
	require.Equal(t, "dev-1", evicted[0].DeviceID)

	// The evicted device logs back in: its session reactivates in place with
	// no eviction, so the user briefly sits one over the cap.
	again, evicted := login(t, m, "u1", "cred-5", "dev-1")
	assert.Empty(t, evicted)
	assert.Equal(t, oldest.ID, again.ID)
	assert.Equal(t, 4, store.activeCount("u1"))

	// The next new device corrects the count back under the cap.
	_, evicted = login(t, m, "u1", "cred-6", "dev-5")
	require.Len(t, evicted, 2)
	assert.Equal(t, 3, store.activeCount("u1"))
}

func TestCreateSession_QuotaIsPerUser(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	for i := 1; i <= 3; i++ {
		login(t, m, "u1", fmt.Sprintf("a-%d", i), fmt.Sprintf("a-dev-%d", i))
	}
	_, evicted := login(t, m, "u2", "b-1", "b-dev-1")

	assert.Empty(t, evicted)
	assert.Equal(t, 3, store.activeCount("u1"))
	assert.Equal(t, 1, store.activeCount("u2"))
}

func TestCreateSession_ForeignDeviceIDGetsReissued(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	login(t, m, "u1", "cred-1", "shared-dev")
	s, _ := login(t, m, "u2", "cred-2", "shared-dev")

	assert.NotEqual(t, "shared-dev", s.DeviceID, "another user's device id must not be reattached")
	assert.Equal(t, 1, store.activeCount("u1"))
	assert.Equal(t, 1, store.activeCount("u2"))
}

func TestCreateSession_ConcurrentLoginsRespectQuota(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := m.CreateOrRefreshSession(context.Background(), "u1",
				fmt.Sprintf("cred-%d", i), auth.DeviceInfo{DeviceID: fmt.Sprintf("dev-%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, store.activeCount("u1"))
}

func TestValidateAndTouch(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	created, _ := login(t, m, "u1", "cred-1", "dev-1")
	before := created.LastActiveAt

	time.Sleep(5 * time.Millisecond)
	s, err := m.ValidateAndTouch(context.Background(), "cred-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, s.ID)
	assert.True(t, s.LastActiveAt.After(before), "validation must bump last_active_at")
}

func TestValidateAndTouch_UnknownCredential(t *testing.T) {
	m := newTestManager(newFakeSessionStore())

	_, err := m.ValidateAndTouch(context.Background(), "nope")
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
}

func TestValidateAndTouch_RevokedSession(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	created, _ := login(t, m, "u1", "cred-1", "dev-1")
	require.NoError(t, m.Revoke(context.Background(), created.ID))

	_, err := m.ValidateAndTouch(context.Background(), "cred-1")
	assert.ErrorIs(t, err, apperror.ErrSessionInactive)
}

func TestValidateAndTouch_ExpiredSessionIsMarkedInactive(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	created, _ := login(t, m, "u1", "cred-1", "dev-1")
	past := time.Now().Add(-time.Minute)
	require.NoError(t, store.Update(context.Background(), created.ID, auth.SessionPatch{ExpiresAt: &past}))

	_, err := m.ValidateAndTouch(context.Background(), "cred-1")
	assert.ErrorIs(t, err, apperror.ErrSessionExpired)

	// A second attempt sees the lazily corrected state.
	_, err = m.ValidateAndTouch(context.Background(), "cred-1")
	assert.ErrorIs(t, err, apperror.ErrSessionInactive)
}

func TestRotateCredential(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	created, _ := login(t, m, "u1", "cred-1", "dev-1")
	require.NoError(t, m.RotateCredential(context.Background(), created.ID, "cred-2"))

	_, err := m.ValidateAndTouch(context.Background(), "cred-1")
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound, "old credential must stop resolving")

	s, err := m.ValidateAndTouch(context.Background(), "cred-2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, s.ID)
}

func TestRevoke_Idempotent(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)

	created, _ := login(t, m, "u1", "cred-1", "dev-1")
	require.NoError(t, m.Revoke(context.Background(), created.ID))
	require.NoError(t, m.Revoke(context.Background(), created.ID))
}

func TestRevoke_UnknownSession(t *testing.T) {
	m := newTestManager(newFakeSessionStore())

	err := m.Revoke(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
}

func TestRevokeByDeviceID(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)
	ctx := context.Background()

	login(t, m, "u1", "cred-1", "dev-1")

	require.NoError(t, m.RevokeByDeviceID(ctx, "u1", "dev-1"))
	assert.Equal(t, 0, store.activeCount("u1"))

	// Already revoked: no-op.
	require.NoError(t, m.RevokeByDeviceID(ctx, "u1", "dev-1"))

	err := m.RevokeByDeviceID(ctx, "u1", "dev-unknown")
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound)

	// A device belonging to someone else reads as not found.
	login(t, m, "u2", "cred-2", "dev-2")
	err = m.RevokeByDeviceID(ctx, "u1", "dev-2")
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
}

func TestRevokeAll(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)
	ctx := context.Background()

	login(t, m, "u1", "cred-1", "dev-1")
	login(t, m, "u1", "cred-2", "dev-2")
	login(t, m, "u2", "cred-3", "dev-3")

	n, err := m.RevokeAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, store.activeCount("u1"))
	assert.Equal(t, 1, store.activeCount("u2"))

	n, err = m.RevokeAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestListSessions_MostRecentFirst(t *testing.T) {
	store := newFakeSessionStore()
	m := newTestManager(store)
	ctx := context.Background()

	a, _ := login(t, m, "u1", "cred-1", "dev-1")
	b, _ := login(t, m, "u1", "cred-2", "dev-2")

	older := time.Now().Add(-time.Hour)
	require.NoError(t, store.Update(ctx, a.ID, auth.SessionPatch{LastActiveAt: &older}))

	items, err := m.ListSessions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)
}
