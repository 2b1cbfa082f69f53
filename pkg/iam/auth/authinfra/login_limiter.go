package authinfra

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/hireline/pkg/iam/auth"
	"github.com/redis/go-redis/v9"
)

// RedisLoginLimiter cuenta intentos fallidos en Redis con expiración por ventana
type RedisLoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

func NewRedisLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) auth.LoginLimiter {
	return &RedisLoginLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func loginFailKey(email string) string {
	return fmt.Sprintf("hireline:login_fail:%s", email)
}

func (l *RedisLoginLimiter) Check(ctx context.Context, email string) error {
	count, err := l.client.Get(ctx, loginFailKey(email)).Int()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("failed to read login attempts from Redis: %w", err)
	}
	if count >= l.maxAttempts {
		ttl, _ := l.client.TTL(ctx, loginFailKey(email)).Result()
		return auth.ErrTooManyAttempts().WithDetail("retry_after_seconds", int(ttl/time.Second))
	}
	return nil
}

// Fail incrementa el contador; la ventana empieza con el primer fallo
func (l *RedisLoginLimiter) Fail(ctx context.Context, email string) error {
	key := loginFailKey(email)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to record login attempt in Redis: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set login window in Redis: %w", err)
		}
	}
	return nil
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, email string) error {
	return l.client.Del(ctx, loginFailKey(email)).Err()
}

// MemoryLoginLimiter is the in-process variant used when Redis is disabled
type MemoryLoginLimiter struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	attempts    map[string]attemptWindow
	lastSweep   time.Time
}

type attemptWindow struct {
	count   int
	startAt time.Time
}

func NewMemoryLoginLimiter(maxAttempts int, window time.Duration) *MemoryLoginLimiter {
	return &MemoryLoginLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		attempts:    make(map[string]attemptWindow),
	}
}

var _ auth.LoginLimiter = (*MemoryLoginLimiter)(nil)

// WithClock replaces the time source
func (l *MemoryLoginLimiter) WithClock(now func() time.Time) *MemoryLoginLimiter {
	l.now = now
	return l
}

func (l *MemoryLoginLimiter) Check(ctx context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.current(email)
	if ok && w.count >= l.maxAttempts {
		remaining := w.startAt.Add(l.window).Sub(l.now())
		return auth.ErrTooManyAttempts().WithDetail("retry_after_seconds", int(remaining/time.Second))
	}
	return nil
}

func (l *MemoryLoginLimiter) Fail(ctx context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep()
	w, ok := l.current(email)
	if !ok {
		w = attemptWindow{startAt: l.now()}
	}
	w.count++
	l.attempts[email] = w
	return nil
}

// sweep drops expired windows, at most once per window length
func (l *MemoryLoginLimiter) sweep() {
	now := l.now()
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for email, w := range l.attempts {
		if now.After(w.startAt.Add(l.window)) {
			delete(l.attempts, email)
		}
	}
}

// Tracked is the number of emails holding an attempt window
func (l *MemoryLoginLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}

func (l *MemoryLoginLimiter) Reset(ctx context.Context, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, email)
	return nil
}

func (l *MemoryLoginLimiter) current(email string) (attemptWindow, bool) {
	w, ok := l.attempts[email]
	if !ok {
		return w, false
	}
	if l.now().After(w.startAt.Add(l.window)) {
		delete(l.attempts, email)
		return attemptWindow{}, false
	}
	return w, true
}
