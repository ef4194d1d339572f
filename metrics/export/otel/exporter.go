package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/mfabridge"
	"github.com/MrEthical07/mfabridge/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// MeterName is the instrumentation scope callers should use when creating the
// meter passed to [NewOTelExporter].
const MeterName = "github.com/MrEthical07/mfabridge"

type metricsSource interface {
	MetricsSnapshot() mfabridge.MetricsSnapshot
	AuditDropped() uint64
}

// histogramGauges publishes one engine histogram as a cumulative gauge per
// bucket plus a sample count. The engine keeps bucket counters, not samples,
// so a native OTel histogram cannot be reconstructed.
type histogramGauges struct {
	buckets [internaldefs.BucketCount]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter observes an engine's metrics on every collection cycle.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters     map[mfabridge.MetricID]metric.Int64ObservableCounter
	histograms   map[mfabridge.MetricID]*histogramGauges
	auditDropped metric.Int64ObservableCounter
}

func NewOTelExporter(meter metric.Meter, engine *mfabridge.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	b := &instrumentBuilder{meter: meter}
	e := &OTelExporter{
		source:     source,
		counters:   make(map[mfabridge.MetricID]metric.Int64ObservableCounter, len(internaldefs.Counters)),
		histograms: make(map[mfabridge.MetricID]*histogramGauges, len(internaldefs.Histograms)),
	}
	for _, def := range internaldefs.Counters {
		e.counters[def.ID] = b.counter(def.Name, def.Help)
	}
	for _, def := range internaldefs.Histograms {
		h := &histogramGauges{}
		for i, bucket := range internaldefs.Buckets {
			h.buckets[i] = b.gauge(def.Name+"_bucket_le_"+bucket.NameSuffix, def.Help+" Cumulative count at le="+bucket.Label+".")
		}
		h.count = b.gauge(def.Name+"_count", def.Help+" Total samples.")
		e.histograms[def.ID] = h
	}
	e.auditDropped = b.counter(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp)
	if b.err != nil {
		return nil, b.err
	}

	reg, err := meter.RegisterCallback(e.observe, b.observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

// instrumentBuilder keeps the first creation error and collects every
// instrument for the callback registration.
type instrumentBuilder struct {
	meter       metric.Meter
	observables []metric.Observable
	err         error
}

func (b *instrumentBuilder) counter(name, help string) metric.Int64ObservableCounter {
	if b.err != nil {
		return nil
	}
	ins, err := b.meter.Int64ObservableCounter(name, metric.WithDescription(help))
	if err != nil {
		b.err = fmt.Errorf("create observable counter %s: %w", name, err)
		return nil
	}
	b.observables = append(b.observables, ins)
	return ins
}

func (b *instrumentBuilder) gauge(name, help string) metric.Int64ObservableGauge {
	if b.err != nil {
		return nil
	}
	ins, err := b.meter.Int64ObservableGauge(name, metric.WithDescription(help))
	if err != nil {
		b.err = fmt.Errorf("create observable gauge %s: %w", name, err)
		return nil
	}
	b.observables = append(b.observables, ins)
	return ins
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for id, ins := range e.counters {
		o.ObserveInt64(ins, int64(snapshot.Counters[id]))
	}
	for id, h := range e.histograms {
		counts := internaldefs.CountsFrom(snapshot.Histograms[id])
		for i, n := range counts.Cumulative() {
			o.ObserveInt64(h.buckets[i], int64(n))
		}
		o.ObserveInt64(h.count, int64(counts.Total()))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback. The meter's instruments stay registered.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
