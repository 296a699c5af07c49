// Package telemetry reports errors and panics to Sentry. Every function is a
// no-op until Init is called with a DSN.
package telemetry

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/logger"
)

var enabled atomic.Bool

// Init configures Sentry for the service. An empty DSN disables reporting.
func Init(cfg config.TelemetryConfig, release string) error {
	if cfg.SentryDSN == "" {
		logger.Debug("sentry disabled, no DSN configured")
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          release,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
		Tags:             map[string]string{"service": "streamflow"},
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			return scrubPII(event)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}

	enabled.Store(true)
	logger.Info("sentry error reporting enabled", "environment", cfg.Environment)
	return nil
}

// Enabled reports whether events are being sent
func Enabled() bool {
	return enabled.Load()
}

// CaptureError sends err with the given tags
func CaptureError(err error, tags map[string]string) {
	if err == nil || !Enabled() {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic along with the request that caused it
func CapturePanic(recovered interface{}, r *http.Request) {
	if !Enabled() {
		return
	}

	var err error
	switch v := recovered.(type) {
	case error:
		err = v
	default:
		err = fmt.Errorf("panic: %v", v)
	}

	hub := sentry.CurrentHub().Clone()
	if r != nil {
		hub.Scope().SetRequest(r)
	}
	hub.Scope().SetTag("panic", "true")
	hub.CaptureException(err)
	hub.Flush(2 * time.Second)
}

// Flush waits for buffered events
func Flush() {
	if Enabled() {
		sentry.Flush(2 * time.Second)
	}
}

// scrubPII drops user identifiers and credentials before events leave the process
func scrubPII(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}

	if event.User.Email != "" {
		event.User.Email = "[redacted]"
	}
	event.User.IPAddress = ""

	if event.Request != nil {
		for k := range event.Request.Headers {
			switch k {
			case "Authorization", "Cookie", "Stripe-Signature":
				event.Request.Headers[k] = "[redacted]"
			}
		}
		event.Request.Data = ""
	}

	return event
}
