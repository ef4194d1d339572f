package mfabridge

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/MrEthical07/mfabridge/callback"
	"github.com/MrEthical07/mfabridge/factor"
	internalaudit "github.com/MrEthical07/mfabridge/internal/audit"
	"github.com/MrEthical07/mfabridge/internal/flows"
	"github.com/MrEthical07/mfabridge/module"
)

// Engine runs login attempts. It holds no per-attempt state and is safe for
// concurrent use once built.
type Engine struct {
	config       Config
	fields       factor.FieldNames
	registry     *module.Registry
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       *slog.Logger
	newAttemptID func() string

	secretsHook func(*factor.SecretList)
}

// Close flushes pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the in-process metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Config returns the normalized configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

// Chains lists the registered module chain names.
func (e *Engine) Chains() []string {
	if e == nil {
		return nil
	}
	return e.registry.Names()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Authenticate runs one attempt against the configured chain.
//
// On success it returns the assembled [Outcome]. On failure it returns an
// [*AuthError] whose Kind tells the caller how to re-prompt. The request's
// secret buffers are zeroed before Authenticate returns on every path.
func (e *Engine) Authenticate(ctx context.Context, fields factor.Fields) (*Outcome, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	return e.AuthenticateChain(ctx, e.config.Login.ChainName, fields)
}

// AuthenticateChain is [Engine.Authenticate] against an explicit chain name.
func (e *Engine) AuthenticateChain(ctx context.Context, chainName string, fields factor.Fields) (*Outcome, error) {
	if e == nil || e.registry == nil {
		return nil, ErrEngineNotReady
	}
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	attemptID := e.newAttemptID()
	defer func() {
		if e.metrics.LatencyEnabled() {
			e.metrics.Observe(MetricLoginLatency, time.Since(start))
		}
	}()

	username, secrets, err := factor.Extract(fields, e.fields)
	if errors.Is(err, factor.ErrTooManyFactors) {
		authErr := newRejected(err)
		// primary, the capped factors and the first one past the cap
		e.recordFailure(ctx, attemptID, username, chainName, e.fields.MaxSupplementary+2, authErr)
		return nil, authErr
	}
	if err != nil {
		e.metricInc(MetricMissingCredentials)
		e.logger.DebugContext(ctx, "login request is missing credentials", "attempt", attemptID)
		authErr := &AuthError{Kind: KindMissingCredentials, cause: err}
		e.emitAudit(ctx, auditEventLoginMissingCredentials, false, attemptID, username, chainName, authErr, nil)
		return nil, authErr
	}
	defer secrets.Wipe()
	if e.secretsHook != nil {
		e.secretsHook(secrets)
	}

	supplementary := secrets.Supplementary()
	e.metrics.Add(MetricFactorsPresented, uint64(supplementary))
	e.logger.DebugContext(ctx, "factors extracted",
		"attempt", attemptID,
		"username", username,
		"chain", chainName,
		"factors", secrets.Len(),
	)

	principals, err := flows.Invoke(ctx, flows.InvokeDeps{
		Resolve: e.resolveChain,
		Debug: func(msg string, args ...any) {
			e.logger.DebugContext(ctx, msg, append(args, "attempt", attemptID)...)
		},
		Errors: flows.InvokeErrors{
			Rejected: newRejected,
			System:   newSystemError,
		},
	}, chainName, username, secrets)
	if err != nil {
		e.recordFailure(ctx, attemptID, username, chainName, secrets.Len(), err)
		return nil, err
	}

	assembled := flows.Assemble(username, secrets.Primary(), principals)
	outcome := &Outcome{
		AttemptID:  attemptID,
		Username:   assembled.Username,
		Chain:      chainName,
		Factors:    secrets.Len(),
		Principals: assembled.Principals,
		Credentials: []CredentialRecord{{
			Type:     CredentialTypeUsernamePassword,
			Username: assembled.Username,
			Secret:   assembled.Secret,
		}},
	}

	e.metricInc(MetricLoginSuccess)
	e.logger.InfoContext(ctx, "authentication succeeded",
		"attempt", attemptID,
		"username", username,
		"chain", chainName,
		"principals", principalNames(outcome.Principals),
	)
	e.emitAudit(ctx, auditEventLoginSuccess, true, attemptID, username, chainName, nil, func() map[string]string {
		return map[string]string{
			"factors":    strconv.Itoa(secrets.Len()),
			"principals": strconv.Itoa(outcome.Principals.Len()),
		}
	})

	return outcome, nil
}

func (e *Engine) resolveChain(name string) (flows.Chain, error) {
	c, err := e.registry.Resolve(name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (e *Engine) recordFailure(ctx context.Context, attemptID, username, chainName string, factors int, err error) {
	cause := causeOf(err)
	var panicErr *flows.PanicError
	if errors.As(cause, &panicErr) {
		e.metricInc(MetricModulePanic)
	}
	if errors.Is(cause, callback.ErrUnsupportedCallback) {
		e.metricInc(MetricUnsupportedCallback)
	}

	event := auditEventLoginSystemError
	switch KindOf(err) {
	case KindAuthenticationRejected:
		e.metricInc(MetricLoginRejected)
		event = auditEventLoginRejected
		e.logger.InfoContext(ctx, "authentication rejected",
			"attempt", attemptID,
			"username", username,
			"chain", chainName,
		)
	default:
		e.metricInc(MetricLoginSystemError)
		e.logger.WarnContext(ctx, "authentication system error",
			"attempt", attemptID,
			"username", username,
			"chain", chainName,
		)
	}

	e.emitAudit(ctx, event, false, attemptID, username, chainName, err, func() map[string]string {
		return map[string]string{
			"factors": strconv.Itoa(factors),
		}
	})
}

func principalNames(ps PrincipalSet) []string {
	out := make([]string, 0, ps.Len())
	for _, p := range ps.Slice() {
		out = append(out, p.String())
	}
	return out
}
