package mfabridge

import (
	internalmetrics "github.com/MrEthical07/mfabridge/internal/metrics"
)

// MetricID identifies a specific counter or histogram in the in-process
// metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricLoginSuccess counts attempts that produced an [Outcome].
	MetricLoginSuccess = MetricID(internalmetrics.MetricLoginSuccess)
	// MetricLoginRejected counts attempts the module chain rejected.
	MetricLoginRejected = MetricID(internalmetrics.MetricLoginRejected)
	// MetricLoginSystemError counts attempts that failed unexpectedly.
	MetricLoginSystemError = MetricID(internalmetrics.MetricLoginSystemError)
	// MetricMissingCredentials counts requests without a username or primary secret.
	MetricMissingCredentials = MetricID(internalmetrics.MetricMissingCredentials)
	// MetricUnsupportedCallback counts chains that issued a request kind the bridge refused.
	MetricUnsupportedCallback = MetricID(internalmetrics.MetricUnsupportedCallback)
	// MetricFactorsPresented counts supplementary factors across all attempts.
	MetricFactorsPresented = MetricID(internalmetrics.MetricFactorsPresented)
	// MetricModulePanic counts module panics recovered by the invoker.
	MetricModulePanic = MetricID(internalmetrics.MetricModulePanic)
	// MetricLoginLatency is the end-to-end Authenticate latency histogram.
	MetricLoginLatency = MetricID(internalmetrics.MetricLoginLatency)
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
