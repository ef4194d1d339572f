// Package otel publishes engine metrics through an OpenTelemetry meter.
//
// [NewOTelExporter] registers an observable counter per engine counter and a
// cumulative gauge per latency bucket. A single callback reads
// [mfabridge.Engine.MetricsSnapshot] on each collection cycle. The caller owns
// the MeterProvider.
package otel
