// Package status exposes the service liveness probe and a telemetry
// connectivity check.
//
// GET /health answers the orchestrator's liveness probe and is expected to
// stay public. GET /ping-telemetry pushes a test event through the telemetry
// reporter and returns the resulting event ID, so operators can verify the
// pipeline end to end.
package status
