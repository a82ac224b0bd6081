package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// Locker guards the critical sections of the booking flow. Bookings for one
// clinician-day serialize through WithBookingLock so two concurrent requests
// cannot both pass the conflict check; check-ins for one branch serialize
// through WithBranchLock so queue positions stay strictly increasing.
//
// These locks are the fast-path rejection only. The authoritative guard is
// the Postgres advisory transaction lock taken by the repositories.
type Locker interface {
	WithBookingLock(ctx context.Context, clinicianID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error
	WithBranchLock(ctx context.Context, branchID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker backed by per-scope Redis keys.
func NewRedisLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisLocker) WithBookingLock(ctx context.Context, clinicianID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:booking:%s:%s", clinicianID.String(), date.Format("2006-01-02"))
	return l.withLock(ctx, key, fn)
}

func (l *redisLocker) WithBranchLock(ctx context.Context, branchID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:branch:%s", branchID.String())
	return l.withLock(ctx, key, fn)
}

func (l *redisLocker) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}
