// Package lockout provides a gate module that rejects usernames with too many
// recent failed attempts. Put it first in a chain with the requisite flag.
//
// The module counts a failure whenever the whole chain fails and clears the
// count whenever the whole chain succeeds, using the [module.Aborter] and
// [module.Committer] hooks.
package lockout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/mfabridge/callback"
	"github.com/MrEthical07/mfabridge/internal/limiters"
	"github.com/MrEthical07/mfabridge/module"
)

const Type = "lockout"

// Options is the decoded option block.
type Options struct {
	Threshold int           `mapstructure:"threshold"`
	Window    time.Duration `mapstructure:"window"`
	Prefix    string        `mapstructure:"prefix"`
	// FailOpen lets attempts through when Redis is unreachable.
	FailOpen bool `mapstructure:"fail_open"`
}

func DefaultOptions() Options {
	return Options{Threshold: 5, Window: 15 * time.Minute, Prefix: "mfabridge:lock:"}
}

type Module struct {
	counter  *limiters.Lockout
	failOpen bool
}

func New(client redis.UniversalClient, opts Options) (*Module, error) {
	if client == nil {
		return nil, errors.New("lockout: nil redis client")
	}
	if opts.Threshold <= 0 {
		return nil, errors.New("lockout: threshold must be > 0")
	}
	if opts.Window < 0 {
		return nil, errors.New("lockout: window must be >= 0")
	}
	return &Module{
		counter: limiters.NewLockout(client, limiters.LockoutConfig{
			Prefix:    opts.Prefix,
			Threshold: opts.Threshold,
			Window:    opts.Window,
		}),
		failOpen: opts.FailOpen,
	}, nil
}

// Factory returns a [module.Factory] sharing client.
func Factory(client redis.UniversalClient) module.Factory {
	return func(options map[string]any) (module.Module, error) {
		opts := DefaultOptions()
		if err := module.DecodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return New(client, opts)
	}
}

func (m *Module) Name() string { return Type }

// Login contributes no principals. It only rejects locked usernames.
func (m *Module) Login(ctx context.Context, h callback.Handler) (module.PrincipalSet, error) {
	username, err := module.AskName(ctx, h)
	if err != nil {
		return nil, err
	}
	locked, err := m.counter.Locked(ctx, username)
	if err != nil {
		if m.failOpen {
			return module.NewPrincipalSet(), nil
		}
		return nil, fmt.Errorf("lockout: %w", err)
	}
	if locked {
		return nil, fmt.Errorf("%w: %q", module.ErrAccountLocked, username)
	}
	return module.NewPrincipalSet(), nil
}

// Commit clears the failure count.
func (m *Module) Commit(ctx context.Context, h callback.Handler) error {
	username, err := module.AskName(ctx, h)
	if err != nil {
		return err
	}
	if err := m.counter.Reset(ctx, username); err != nil && !m.failOpen {
		return fmt.Errorf("lockout: %w", err)
	}
	return nil
}

// Abort records one failure. Backend errors are dropped; the attempt has
// already failed.
func (m *Module) Abort(ctx context.Context, h callback.Handler) {
	username, err := module.AskName(ctx, h)
	if err != nil {
		return
	}
	_, _ = m.counter.RecordFailure(ctx, username)
}

var (
	_ module.Module    = (*Module)(nil)
	_ module.Committer = (*Module)(nil)
	_ module.Aborter   = (*Module)(nil)
)
