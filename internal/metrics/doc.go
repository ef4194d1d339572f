// Package metrics stores the engine's login counters and the end-to-end
// latency histogram.
//
// Each counter lives in its own padded slot so that concurrent logins
// updating different outcomes do not share a cache line. The histogram has
// eight fixed buckets, 5ms up to +Inf. Recording never allocates; Snapshot
// copies everything for the exporters under metrics/export.
package metrics
