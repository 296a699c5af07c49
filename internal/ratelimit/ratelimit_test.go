package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/mantonx/streamflow/internal/cache"
	"github.com/stretchr/testify/assert"
)

func TestRegistrationLimit(t *testing.T) {
	ctx := context.Background()
	l := New(cache.NewMemoryStore())

	for i := 0; i < 5; i++ {
		ok, _ := l.CheckRegistration(ctx, "10.0.0.1")
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, retry := l.CheckRegistration(ctx, "10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, time.Hour)

	// Other clients are unaffected
	ok, _ = l.CheckRegistration(ctx, "10.0.0.2")
	assert.True(t, ok)
}

func TestLoginResetOnSuccess(t *testing.T) {
	ctx := context.Background()
	l := New(cache.NewMemoryStore())

	for i := 0; i < 20; i++ {
		l.CheckLogin(ctx, "ip")
	}
	ok, _ := l.CheckLogin(ctx, "ip")
	assert.False(t, ok)

	l.ResetLogin(ctx, "ip")
	ok, _ = l.CheckLogin(ctx, "ip")
	assert.True(t, ok)
}

func TestNilStoreAllowsEverything(t *testing.T) {
	l := New(nil)
	for i := 0; i < 100; i++ {
		ok, _ := l.CheckLogin(context.Background(), "ip")
		assert.True(t, ok)
	}

	var nilLimiter *Limiter
	ok, _ := nilLimiter.CheckRegistration(context.Background(), "ip")
	assert.True(t, ok)
}

func TestForgotPasswordLimitIsPerEmail(t *testing.T) {
	ctx := context.Background()
	l := New(cache.NewMemoryStore())

	for i := 0; i < 3; i++ {
		ok, _ := l.CheckForgotPassword(ctx, "a@example.com")
		assert.True(t, ok)
	}
	ok, retry := l.CheckForgotPassword(ctx, " A@example.com ")
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	ok, _ = l.CheckForgotPassword(ctx, "b@example.com")
	assert.True(t, ok)
}
