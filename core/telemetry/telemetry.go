package telemetry

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

// Config holds configuration for error telemetry.
type Config struct {
	// DSN is the Sentry project DSN. Empty disables telemetry entirely.
	DSN string `mapstructure:"dsn" default:""`
	// Environment tags every event (local, staging, production).
	Environment string `mapstructure:"environment" default:"local"`
	// Release identifies the running build (e.g. an image tag).
	Release string `mapstructure:"release" default:""`
	// TracesSampleRate controls performance trace sampling (0.0 - 1.0).
	TracesSampleRate float64 `mapstructure:"traces_sample_rate" default:"1.0"`
}

// Setup initializes the Sentry SDK once per process. It is a no-op when no
// DSN is configured, so local development never requires a Sentry project.
// Must be called before any Reporter is used; never reconfigured mid-process.
func Setup(cfg *Config) error {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = os.Getenv("SENTRY_DSN")
	}
	if dsn == "" {
		return nil
	}

	release := cfg.Release
	if release == "" {
		release = os.Getenv("IMAGE_TAG")
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      cfg.Environment,
		Release:          release,
		TracesSampleRate: cfg.TracesSampleRate,
		SendDefaultPII:   true,
		AttachStacktrace: true,
	})
}

// Flush drains buffered events before process exit.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// Reporter delivers errors and messages to the telemetry backend.
// Implementations are fire-and-forget: they never return an error and never
// affect the caller's control flow.
type Reporter interface {
	// CaptureException records an error event. Safe to call with nil.
	CaptureException(err error)
	// CaptureMessage records a free-form message with optional tags and
	// returns the backend event id, or "" when nothing was recorded.
	CaptureMessage(message string, tags map[string]string) string
}

// SentryReporter reports through the process-wide Sentry client configured by
// Setup. When Setup was skipped (no DSN) every call degrades to a no-op.
type SentryReporter struct {
	logger *zap.Logger
}

// NewReporter creates a Sentry-backed reporter.
func NewReporter(logger *zap.Logger) *SentryReporter {
	if logger == nil {
		logger = zap.L()
	}
	return &SentryReporter{logger: logger}
}

func (r *SentryReporter) CaptureException(err error) {
	if err == nil {
		return
	}
	if id := sentry.CaptureException(err); id != nil {
		r.logger.Debug("reported exception to telemetry", zap.String("event_id", string(*id)))
	}
}

func (r *SentryReporter) CaptureMessage(message string, tags map[string]string) string {
	var eventID string
	sentry.WithScope(func(scope *sentry.Scope) {
		// Category tag allows filtering hand-sent observations in the UI.
		scope.SetTag("category", "observations")
		scope.SetTag("handled", "true")
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		if id := sentry.CaptureMessage(message); id != nil {
			eventID = string(*id)
		}
	})
	return eventID
}

// NopReporter discards everything. Used in tests and as a safe default.
type NopReporter struct{}

func (NopReporter) CaptureException(error) {}

func (NopReporter) CaptureMessage(string, map[string]string) string { return "" }

// RecordingReporter retains reported errors in memory so tests can assert on
// the fire-and-forget telemetry path.
type RecordingReporter struct {
	Errors   []error
	Messages []string
}

func (r *RecordingReporter) CaptureException(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err)
	}
}

func (r *RecordingReporter) CaptureMessage(message string, tags map[string]string) string {
	r.Messages = append(r.Messages, message)
	return fmt.Sprintf("recorded-%d", len(r.Messages))
}
