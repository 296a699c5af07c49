// Package ratelimit provides fixed-window counters for abuse-prone endpoints
// (registration, login, password resets) on top of the shared cache store. A nil store
// disables every limit.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/mantonx/streamflow/internal/cache"
	"github.com/mantonx/streamflow/internal/logger"
)

// Rule is a limit of Max hits per Window
type Rule struct {
	Name   string
	Max    int64
	Window time.Duration
}

var (
	// Registration allows 5 sign-ups per IP per hour
	Registration = Rule{Name: "register", Max: 5, Window: time.Hour}
	// Login allows 20 attempts per IP per 15 minutes
	Login = Rule{Name: "login", Max: 20, Window: 15 * time.Minute}
	// ForgotPassword allows 3 reset requests per email per hour
	ForgotPassword = Rule{Name: "forgot", Max: 3, Window: time.Hour}
)

// Limiter performs rate limit checks against a cache.Store
type Limiter struct {
	store cache.Store
}

// New creates a Limiter. With a nil store every check passes.
func New(store cache.Store) *Limiter {
	return &Limiter{store: store}
}

func key(rule Rule, subject string) string {
	return fmt.Sprintf("rate:%s:%s", rule.Name, subject)
}

// Check counts a hit for subject under rule. It returns whether the hit is
// allowed and, when it is not, how long until the window resets. Store
// failures let the request through.
func (l *Limiter) Check(ctx context.Context, rule Rule, subject string) (bool, time.Duration) {
	if l == nil || l.store == nil {
		return true, 0
	}

	k := key(rule, subject)
	count, err := l.store.Incr(ctx, k)
	if err != nil {
		logger.Warn("rate limit store unavailable, allowing request", "rule", rule.Name, "error", err)
		return true, 0
	}
	if count == 1 {
		if err := l.store.Expire(ctx, k, rule.Window); err != nil {
			logger.Warn("failed to set rate limit window", "rule", rule.Name, "error", err)
		}
	}

	if count <= rule.Max {
		return true, 0
	}

	ttl, err := l.store.TTL(ctx, k)
	if err != nil || ttl <= 0 {
		// A counter without expiry would block forever
		l.store.Expire(ctx, k, rule.Window)
		ttl = rule.Window
	}
	return false, ttl
}

// Reset clears the counter of subject under rule
func (l *Limiter) Reset(ctx context.Context, rule Rule, subject string) {
	if l == nil || l.store == nil {
		return
	}
	if err := l.store.Del(ctx, key(rule, subject)); err != nil {
		logger.Warn("failed to reset rate limit", "rule", rule.Name, "error", err)
	}
}

// CheckRegistration enforces the registration rule for ip
func (l *Limiter) CheckRegistration(ctx context.Context, ip string) (bool, time.Duration) {
	return l.Check(ctx, Registration, ip)
}

// CheckLogin enforces the login rule for ip
func (l *Limiter) CheckLogin(ctx context.Context, ip string) (bool, time.Duration) {
	return l.Check(ctx, Login, ip)
}

// ResetLogin clears the login counter of ip after a successful login
func (l *Limiter) ResetLogin(ctx context.Context, ip string) {
	l.Reset(ctx, Login, ip)
}

// CheckForgotPassword enforces the reset request rule for an email. The
// address is hashed so it never appears in cache keys.
func (l *Limiter) CheckForgotPassword(ctx context.Context, email string) (bool, time.Duration) {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return l.Check(ctx, ForgotPassword, hex.EncodeToString(sum[:8]))
}
