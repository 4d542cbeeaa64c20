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
	ErrLockNotAcquired = errors.New("availability lock not acquired")
)

// Locker guards the check-then-flip sequence on a weekly availability
// template. Booking, reschedule and cancellation all mutate the same
// template, so they serialize on its availability id.
type Locker interface {
	WithTemplateLock(ctx context.Context, availabilityID string, fn func(ctx context.Context) error) error
}

type redisTemplateLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTemplateLocker creates a locker that uses a per availability-id Redis key
func NewRedisTemplateLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisTemplateLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisTemplateLocker) WithTemplateLock(ctx context.Context, availabilityID string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:availability:%s", availabilityID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire availability lock: %w", err)
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

func (l *redisTemplateLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release availability lock: %w", err)
	}
	return nil
}
