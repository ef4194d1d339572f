// Package totp provides a module that checks a time-based one-time code taken
// from a supplementary factor slot.
package totp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/mfabridge/callback"
	"github.com/MrEthical07/mfabridge/internal/limiters"
	"github.com/MrEthical07/mfabridge/internal/otp"
	"github.com/MrEthical07/mfabridge/module"
)

const Type = "totp"

// ErrNoSecret is returned by a [SecretStore] for users without enrollment.
var ErrNoSecret = errors.New("totp: no secret enrolled")

// SecretStore looks up a user's shared secret.
type SecretStore interface {
	Secret(ctx context.Context, username string) ([]byte, error)
}

// StaticSecrets maps usernames to base32 secrets.
type StaticSecrets map[string]string

func (s StaticSecrets) Secret(_ context.Context, username string) ([]byte, error) {
	enc, ok := s[username]
	if !ok {
		return nil, ErrNoSecret
	}
	return otp.DecodeSecret(enc)
}

// RedisSecrets reads base32 secrets from a Redis hash keyed by username.
type RedisSecrets struct {
	Client redis.UniversalClient
	Key    string
}

func (s RedisSecrets) Secret(ctx context.Context, username string) ([]byte, error) {
	enc, err := s.Client.HGet(ctx, s.Key, username).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSecret
		}
		return nil, fmt.Errorf("totp: secret lookup: %w", err)
	}
	return otp.DecodeSecret(enc)
}

// Options is the decoded option block.
type Options struct {
	// Slot is the factor slot holding the code. Slot 0 is the password.
	Slot int        `mapstructure:"slot"`
	OTP  otp.Config `mapstructure:"otp"`
	// Secrets holds inline base32 secrets. When empty, secrets are read from
	// the Redis hash named by SecretsKey.
	Secrets    map[string]string `mapstructure:"secrets"`
	SecretsKey string            `mapstructure:"secrets_key"`
	// ReplayPrefix names the Redis key namespace for consumed codes. Replay
	// protection is off without a Redis client.
	ReplayPrefix string `mapstructure:"replay_prefix"`
}

func DefaultOptions() Options {
	return Options{
		Slot:         1,
		OTP:          otp.DefaultConfig(),
		SecretsKey:   "mfabridge:totp:secrets",
		ReplayPrefix: "mfabridge:totp:used:",
	}
}

type Module struct {
	slot     int
	verifier *otp.Verifier
	secrets  SecretStore
	replay   *limiters.ReplayGuard
	now      func() time.Time
}

// New builds the module. replay may be nil.
func New(opts Options, secrets SecretStore, replay *limiters.ReplayGuard) (*Module, error) {
	if opts.Slot < 1 {
		return nil, errors.New("totp: slot must be >= 1")
	}
	if secrets == nil {
		return nil, errors.New("totp: nil secret store")
	}
	v, err := otp.New(opts.OTP)
	if err != nil {
		return nil, err
	}
	return &Module{slot: opts.Slot, verifier: v, secrets: secrets, replay: replay, now: time.Now}, nil
}

// Factory returns a [module.Factory]. client may be nil when every chain uses
// inline secrets and no replay protection is wanted.
func Factory(client redis.UniversalClient) module.Factory {
	return func(options map[string]any) (module.Module, error) {
		opts := DefaultOptions()
		if err := module.DecodeOptions(options, &opts); err != nil {
			return nil, err
		}

		var store SecretStore
		switch {
		case len(opts.Secrets) > 0:
			store = StaticSecrets(opts.Secrets)
		case client != nil:
			store = RedisSecrets{Client: client, Key: opts.SecretsKey}
		default:
			return nil, errors.New("totp: no inline secrets and no redis client")
		}

		var guard *limiters.ReplayGuard
		if client != nil {
			cfg := opts.OTP
			if cfg.Period == 0 {
				cfg.Period = otp.DefaultConfig().Period
			}
			window := time.Duration(cfg.Period*(2*cfg.Skew+1)) * time.Second
			guard = limiters.NewReplayGuard(client, opts.ReplayPrefix, window)
		}
		return New(opts, store, guard)
	}
}

func (m *Module) Name() string { return Type }

func (m *Module) Login(ctx context.Context, h callback.Handler) (module.PrincipalSet, error) {
	username, factors, err := module.AskFactors(ctx, h)
	if err != nil {
		return nil, err
	}
	defer factors.Clear()

	code, ok := m.codeFrom(factors)
	if !ok {
		return nil, module.Rejectf("no one-time code in slot %d", m.slot)
	}

	secret, err := m.secrets.Secret(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNoSecret) {
			return nil, module.Rejectf("user %q has no one-time code enrolled", username)
		}
		return nil, err
	}
	defer clear(secret)

	valid, step, err := m.verifier.Verify(secret, code, m.now())
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, module.Rejectf("one-time code mismatch for %q", username)
	}

	fresh, err := m.replay.Claim(ctx, username, step)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return nil, module.Rejectf("one-time code reused for %q", username)
	}
	return module.NewPrincipalSet(), nil
}

func (m *Module) codeFrom(factors *callback.MultiSecretRequest) ([]byte, bool) {
	code, ok := factors.Factor(m.slot)
	if !ok || len(code) == 0 {
		return nil, false
	}
	return code, true
}

var _ module.Module = (*Module)(nil)
