// Package server holds configuration for the HTTP server.
//
// The Config struct defines the listening port, the API key protecting the
// API route groups, and the deployment environment. The environment value is
// forwarded to the telemetry layer so events can be filtered per deployment.
package server
