package internaldefs

import (
	"math"
	"strconv"
	"strings"

	"github.com/MrEthical07/mfabridge"
	internalmetrics "github.com/MrEthical07/mfabridge/internal/metrics"
)

// Def binds an engine metric to its exported name and help text.
type Def struct {
	ID   mfabridge.MetricID
	Name string
	Help string
}

const (
	AuditDroppedName = "mfabridge_audit_dropped_total"
	AuditDroppedHelp = "Audit events dropped due to dispatcher backpressure."
)

var Counters = []Def{
	{mfabridge.MetricLoginSuccess, "mfabridge_login_success_total", "Login attempts that produced an authenticated outcome."},
	{mfabridge.MetricLoginRejected, "mfabridge_login_rejected_total", "Login attempts rejected by the module chain."},
	{mfabridge.MetricLoginSystemError, "mfabridge_login_system_error_total", "Login attempts that failed with an unexpected error."},
	{mfabridge.MetricMissingCredentials, "mfabridge_missing_credentials_total", "Requests without a username or primary password."},
	{mfabridge.MetricUnsupportedCallback, "mfabridge_unsupported_callback_total", "Chains that issued a callback the bridge cannot answer."},
	{mfabridge.MetricFactorsPresented, "mfabridge_factors_presented_total", "Supplementary factors submitted across all attempts."},
	{mfabridge.MetricModulePanic, "mfabridge_module_panic_total", "Login module panics recovered by the engine."},
}

var Histograms = []Def{
	{mfabridge.MetricLoginLatency, "mfabridge_login_latency_seconds", "End-to-end login latency."},
}

// BucketCount is the number of engine histogram buckets, +Inf included.
const BucketCount = internalmetrics.HistBucketCount

// UpperBounds are the finite bucket bounds in seconds, in engine bucket
// order. The last engine bucket is +Inf.
var UpperBounds = [BucketCount - 1]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// Bucket describes one histogram bucket for exporters.
type Bucket struct {
	UpperBound float64
	// Label is the Prometheus "le" value.
	Label string
	// NameSuffix is Label made safe for instrument names.
	NameSuffix string
}

// Buckets lists every bucket in engine order.
var Buckets = buildBuckets()

func buildBuckets() [BucketCount]Bucket {
	var out [BucketCount]Bucket
	for i, ub := range UpperBounds {
		label := strconv.FormatFloat(ub, 'f', -1, 64)
		out[i] = Bucket{UpperBound: ub, Label: label, NameSuffix: strings.ReplaceAll(label, ".", "_")}
	}
	out[BucketCount-1] = Bucket{UpperBound: math.Inf(1), Label: "+Inf", NameSuffix: "inf"}
	return out
}

// Counts holds per-bucket counts in engine order.
type Counts [BucketCount]uint64

// CountsFrom copies a snapshot histogram, truncating or zero-padding.
func CountsFrom(raw []uint64) Counts {
	var c Counts
	copy(c[:], raw)
	return c
}

// Cumulative returns running totals, the form both exporters publish.
func (c Counts) Cumulative() Counts {
	var out Counts
	var running uint64
	for i, n := range c {
		running += n
		out[i] = running
	}
	return out
}

// Total is the number of samples across all buckets.
func (c Counts) Total() uint64 {
	var total uint64
	for _, n := range c {
		total += n
	}
	return total
}
