// Package lock holds per-request run locks in Redis so that only one worker
// process drives a request's job tree at a time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another owner holds the lock.
var ErrHeld = errors.New("lock held by another owner")

// release deletes the key only when it still carries our token.
var release = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewLocker(client redis.UniversalClient, prefix string, ttl time.Duration) *Locker {
	if prefix == "" {
		prefix = "scout:run-lock:"
	}
	return &Locker{client: client, prefix: prefix, ttl: ttl}
}

// Lease is a held lock. Release is safe to call more than once.
type Lease struct {
	locker *Locker
	key    string
	token  string
}

// Acquire takes the lock for name or returns ErrHeld.
func (l *Locker) Acquire(ctx context.Context, name string) (*Lease, error) {
	key := l.prefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return &Lease{locker: l, key: key, token: token}, nil
}

func (r *Lease) Release(ctx context.Context) error {
	if err := release.Run(ctx, r.locker.client, []string{r.key}, r.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("releasing lock %s: %w", r.key, err)
	}
	return nil
}

// Lock acquires name and returns the matching release function.
func (l *Locker) Lock(ctx context.Context, name string) (func(context.Context) error, error) {
	lease, err := l.Acquire(ctx, name)
	if err != nil {
		return nil, err
	}
	return lease.Release, nil
}
