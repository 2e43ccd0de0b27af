// Package metrics defines the prometheus collectors exported by the daemon:
// ingest and analysis counters, animation job gauges and durations, and HTTP
// request instrumentation. Collectors are registered at import time via
// promauto and served on /metrics.
package metrics
