// Package static provides a username/password module backed by a fixed user
// table with Argon2id hashes. It is meant for small deployments and tests.
package static

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/mfabridge/callback"
	"github.com/MrEthical07/mfabridge/module"
	"github.com/MrEthical07/mfabridge/password"
)

// Type is the registry name of this module.
const Type = "static"

// User is one configured account.
type User struct {
	Username     string   `mapstructure:"username" yaml:"username"`
	PasswordHash string   `mapstructure:"password_hash" yaml:"password_hash"`
	Roles        []string `mapstructure:"roles" yaml:"roles,omitempty"`
	Disabled     bool     `mapstructure:"disabled" yaml:"disabled,omitempty"`
}

// Options is the decoded option block.
type Options struct {
	Users []User `mapstructure:"users"`
}

// Module verifies the primary factor against the user table.
type Module struct {
	hasher *password.Argon2
	users  map[string]User
}

// New indexes users by name. Duplicate or empty usernames are rejected.
func New(hasher *password.Argon2, users []User) (*Module, error) {
	if hasher == nil {
		return nil, errors.New("static: nil hasher")
	}
	idx := make(map[string]User, len(users))
	for _, u := range users {
		if u.Username == "" {
			return nil, errors.New("static: empty username")
		}
		if _, dup := idx[u.Username]; dup {
			return nil, fmt.Errorf("static: duplicate user %q", u.Username)
		}
		idx[u.Username] = u
	}
	return &Module{hasher: hasher, users: idx}, nil
}

// Factory returns a [module.Factory] that shares hasher across instances.
func Factory(hasher *password.Argon2) module.Factory {
	return func(options map[string]any) (module.Module, error) {
		var opts Options
		if err := module.DecodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return New(hasher, opts.Users)
	}
}

func (m *Module) Name() string { return Type }

// Login checks the primary factor. Unknown users cost the same hashing work
// as known ones.
func (m *Module) Login(ctx context.Context, h callback.Handler) (module.PrincipalSet, error) {
	username, secret, err := module.AskPassword(ctx, h)
	if err != nil {
		return nil, err
	}
	defer secret.Clear()

	u, ok := m.users[username]
	if !ok {
		m.hasher.VerifyDummy(secret.Secret())
		return nil, module.Rejectf("user %q", username)
	}

	match, err := m.hasher.Verify(secret.Secret(), u.PasswordHash)
	if err != nil {
		if errors.Is(err, password.ErrSecretTooLong) {
			return nil, module.Rejectf("user %q: %v", username, err)
		}
		return nil, fmt.Errorf("static: user %q: %w", username, err)
	}
	if !match {
		return nil, module.Rejectf("user %q", username)
	}
	if u.Disabled {
		return nil, fmt.Errorf("%w: user %q", module.ErrAccountExpired, username)
	}

	ps := module.NewPrincipalSet(module.UsernamePrincipal(username))
	for _, r := range u.Roles {
		ps.Add(module.Principal{Type: module.PrincipalRole, Name: r})
	}
	return ps, nil
}

var _ module.Module = (*Module)(nil)
