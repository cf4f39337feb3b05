package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
)

// LoginThrottle counts login attempts per email in a fixed window. The
// counter is cleared on success, so only failures accumulate.
// Key format: login:fail:<email>
type LoginThrottle struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginThrottle creates a LoginThrottle. Non-positive limits fall back to
// 5 attempts per 15 minutes.
func NewLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginThrottle{client: client, maxAttempts: maxAttempts, window: window}
}

// Reserve counts an attempt for email before its credentials are checked
// and reports whether it is within the limit. The increment and the window
// expiry run in one MULTI/EXEC.
func (t *LoginThrottle) Reserve(ctx context.Context, email string) (bool, error) {
	key := t.key(email)

	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, t.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("throttle reserve: %w", err)
	}
	return incr.Val() <= int64(t.maxAttempts), nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) error {
	if err := t.client.Del(ctx, t.key(email)).Err(); err != nil {
		return fmt.Errorf("throttle reset: %w", err)
	}
	return nil
}

func (t *LoginThrottle) key(email string) string {
	return "login:fail:" + email
}
