package service

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
)

// RetentionWorker purges old activity entries on an interval
type RetentionWorker struct {
	svc       *ActivityService
	retention time.Duration
	interval  time.Duration
	log       hclog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewRetentionWorker creates a worker keeping retention worth of entries
func NewRetentionWorker(svc *ActivityService, retention, interval time.Duration, log hclog.Logger) *RetentionWorker {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionWorker{svc: svc, retention: retention, interval: interval, log: log}
}

// Start purges once, then every interval until Stop. A non-positive
// retention keeps entries forever and the worker does nothing.
func (w *RetentionWorker) Start() {
	if w.retention <= 0 {
		w.log.Info("activity retention disabled")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx)
}

// Stop ends the worker and waits for a running purge to finish
func (w *RetentionWorker) Stop(ctx context.Context) error {
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

func (w *RetentionWorker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.purge(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *RetentionWorker) purge(ctx context.Context) {
	n, err := w.svc.Purge(ctx, w.retention)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn("activity purge failed", "error", err)
		}
		return
	}
	if n > 0 {
		w.log.Info("purged old activity entries", "count", n)
	}
}
