// internal/pkg/session/lock.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker serializes a critical section per user.
type Locker interface {
	WithUserLock(ctx context.Context, userID string, fn func() error) error
}

// UserLock serializes the eviction-and-insert read-modify-write for a user
// across concurrent logins using a Redis SET NX lease. If the lock cannot be
// acquired within the wait budget the section runs anyway; a brief cap
// overshoot is corrected on the next login.
type UserLock struct {
	client *redis.Client

	ttl     time.Duration
	wait    time.Duration
	backoff time.Duration
}

func NewUserLock(client *redis.Client) *UserLock {
	return &UserLock{
		client:  client,
		ttl:     5 * time.Second,
		wait:    3 * time.Second,
		backoff: 50 * time.Millisecond,
	}
}

func (l *UserLock) WithUserLock(ctx context.Context, userID string, fn func() error) error {
	key := fmt.Sprintf("lock:user:%s", userID)
	lease := uuid.NewString()

	deadline := time.Now().Add(l.wait)
	acquired := false
	for time.Now().Before(deadline) {
		ok, err := l.client.SetNX(ctx, key, lease, l.ttl).Result()
		if err != nil {
			// Redis down: run unlocked rather than failing the login.
			break
		}
		if ok {
			acquired = true
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.backoff):
		}
	}

	if acquired {
		defer l.release(ctx, key, lease)
	}
	return fn()
}

// release deletes the lock only if we still hold the lease.
func (l *UserLock) release(ctx context.Context, key, lease string) {
	const script = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`
	l.client.Eval(ctx, script, []string{key}, lease)
}
