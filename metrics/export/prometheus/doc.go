// Package prometheus exposes engine metrics to Prometheus.
//
// [PrometheusExporter] is a collector that snapshots the engine on every scrape.
// Counters are named mfabridge_*_total and the latency histogram is
// mfabridge_login_latency_seconds. The exporter registers itself with a
// private registry served by [PrometheusExporter.Handler]; it never touches
// the global default registry.
package prometheus
