// Package metrics exposes Prometheus instrumentation for the HTTP server and
// the storage client.
//
// Middleware records a counter and latency histogram per request; Handler
// serves the /metrics scrape endpoint through the Fiber adaptor.
// RecordStorageOperation counts individual storage calls by operation name
// and outcome so dashboards can separate transport failures from traffic.
package metrics
