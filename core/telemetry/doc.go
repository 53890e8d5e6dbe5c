// Package telemetry provides error reporting via Sentry.
//
// Setup initializes the process-wide Sentry client from configuration (or the
// SENTRY_DSN environment variable) and is intentionally a no-op when no DSN is
// present, so the library works unchanged in local development.
//
// # Reporter
//
// Services depend on the Reporter interface rather than on the Sentry SDK
// directly. Reporting is strictly fire-and-forget: a Reporter never returns an
// error and never alters the caller's control flow. Three implementations are
// provided:
//
//   - SentryReporter: production reporter backed by the global Sentry client.
//   - NopReporter: discards everything.
//   - RecordingReporter: in-memory capture for test assertions.
//
// # Usage
//
//	if err := telemetry.Setup(&cfg.Telemetry); err != nil { ... }
//	defer telemetry.Flush(2 * time.Second)
//	reporter := telemetry.NewReporter(logg)
package telemetry
