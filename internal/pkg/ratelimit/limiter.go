// Package ratelimit throttles QR redemptions per student with fixed windows
// kept in Redis.
package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"time"
)

var (
	ErrNoStore      = errors.New("rate limiter has no store")
	ErrInvalidActor = errors.New("rate limiter needs a positive user id")
)

// Counter is the state of one window key.
type Counter struct {
	Hits int64
	TTL  time.Duration // <= 0 when the key is missing or has no expiry
}

// Store keeps hit counters that expire with their window.
type Store interface {
	// Hit counts one request and returns the counter after it.
	Hit(ctx context.Context, key string, window time.Duration) (Counter, error)
	// Peek returns the counter without counting.
	Peek(ctx context.Context, key string) (Counter, error)
}

// Window is a fixed budget of hits per period.
type Window struct {
	Name   string
	Period time.Duration
	Budget int64
}

// Decision is the outcome of a limiter call.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Window     string // window that blocked, empty when allowed
}

// RetryAfterSeconds rounds the wait up for the Retry-After header.
func (d Decision) RetryAfterSeconds() int64 {
	if d.RetryAfter <= 0 {
		return 0
	}
	return int64((d.RetryAfter + time.Second - 1) / time.Second)
}

// Limiter enforces every configured window for a user.
type Limiter struct {
	store   Store
	prefix  string
	windows []Window
}

// NewLimiter builds the redeem limiter: perMinute hits per minute and
// per10Sec hits per ten seconds. A budget <= 0 disables its window.
func NewLimiter(store Store, prefix string, perMinute, per10Sec int) *Limiter {
	return NewWindowLimiter(store, prefix,
		Window{Name: "1m", Period: time.Minute, Budget: int64(perMinute)},
		Window{Name: "10s", Period: 10 * time.Second, Budget: int64(per10Sec)},
	)
}

// NewWindowLimiter builds a limiter from arbitrary windows.
func NewWindowLimiter(store Store, prefix string, windows ...Window) *Limiter {
	l := &Limiter{store: store, prefix: prefix}
	for _, w := range windows {
		if w.Budget > 0 && w.Period > 0 {
			l.windows = append(l.windows, w)
		}
	}
	return l
}

// Blocked reports whether userID is already out of budget in any window.
// No hit is recorded.
func (l *Limiter) Blocked(ctx context.Context, userID int64) (Decision, error) {
	if err := l.check(userID); err != nil {
		return Decision{}, err
	}

	d := Decision{Allowed: true}
	for _, w := range l.windows {
		c, err := l.store.Peek(ctx, l.key(w, userID))
		if err != nil {
			return Decision{}, err
		}
		if c.Hits >= w.Budget {
			d.block(w, c)
		}
	}
	return d, nil
}

// Allow records a hit in every window and reports whether it fits.
func (l *Limiter) Allow(ctx context.Context, userID int64) (Decision, error) {
	if err := l.check(userID); err != nil {
		return Decision{}, err
	}

	d := Decision{Allowed: true}
	for _, w := range l.windows {
		c, err := l.store.Hit(ctx, l.key(w, userID), w.Period)
		if err != nil {
			return Decision{}, err
		}
		if c.Hits > w.Budget {
			d.block(w, c)
		}
	}
	return d, nil
}

func (d *Decision) block(w Window, c Counter) {
	wait := c.TTL
	if wait <= 0 {
		wait = w.Period
	}
	d.Allowed = false
	if wait > d.RetryAfter {
		d.RetryAfter = wait
		d.Window = w.Name
	}
}

func (l *Limiter) check(userID int64) error {
	if l.store == nil {
		return ErrNoStore
	}
	if userID <= 0 {
		return ErrInvalidActor
	}
	return nil
}

func (l *Limiter) key(w Window, userID int64) string {
	return "rate:" + l.prefix + ":" + w.Name + ":" + strconv.FormatInt(userID, 10)
}
