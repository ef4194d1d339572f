package mfabridge

import (
	"errors"
	"log/slog"

	internalaudit "github.com/MrEthical07/mfabridge/internal/audit"
	"github.com/MrEthical07/mfabridge/module"
	"github.com/google/uuid"
)

// Builder assembles an [Engine]. A Builder is single-use.
type Builder struct {
	config   Config
	registry *module.Registry
	chains   []*module.Chain

	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRegistry sets the chain registry. It cannot be combined with
// [Builder.WithChain].
func (b *Builder) WithRegistry(reg *module.Registry) *Builder {
	b.registry = reg
	return b
}

// WithChain registers a single chain. Repeated calls add more chains.
func (b *Builder) WithChain(chain *module.Chain) *Builder {
	b.chains = append(b.chains, chain)
	return b
}

// WithAuditSink sets the destination for audit events. Auditing must also be
// enabled in [AuditConfig].
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the diagnostic logger. The default discards everything.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the login latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
//
// Build fails when the configuration is invalid, when no chain source was
// given, or when the Builder was already used. A configured chain name that
// is not registered is only logged; attempts against it fail as system
// errors.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := normalizeConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry := b.registry
	switch {
	case registry != nil && len(b.chains) > 0:
		return nil, errors.New("WithRegistry and WithChain are mutually exclusive")
	case registry == nil && len(b.chains) == 0:
		return nil, errors.New("module chain registry required")
	case registry == nil:
		reg, err := module.NewRegistry(b.chains...)
		if err != nil {
			return nil, err
		}
		registry = reg
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if _, err := registry.Resolve(cfg.Login.ChainName); err != nil {
		logger.Warn("configured module chain is not registered",
			"chain", cfg.Login.ChainName,
			"registered", registry.Names(),
		)
	}

	engine := &Engine{
		config:       cfg,
		fields:       cfg.FieldNames(),
		registry:     registry,
		logger:       logger,
		newAttemptID: uuid.NewString,
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Logger:     logger,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
