package service

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ExpirySweeper periodically expires ended subscriptions
type ExpirySweeper struct {
	svc      *SubscriptionService
	interval time.Duration
	log      hclog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewExpirySweeper creates a sweeper running every interval
func NewExpirySweeper(svc *SubscriptionService, interval time.Duration, log hclog.Logger) *ExpirySweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &ExpirySweeper{svc: svc, interval: interval, log: log}
}

// Start runs one sweep immediately, then one per interval until Stop
func (w *ExpirySweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx)
}

// Stop ends the sweeper and waits for a running sweep to finish
func (w *ExpirySweeper) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *ExpirySweeper) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *ExpirySweeper) sweep(ctx context.Context) {
	n, err := w.svc.ExpireDue(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("subscription sweep failed", "error", err)
		}
		return
	}
	if n > 0 {
		w.log.Info("expired subscriptions", "users", n)
	}
}
