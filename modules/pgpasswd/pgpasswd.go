// Package pgpasswd provides a username/password module that reads Argon2id
// hashes and role names from PostgreSQL.
//
// The default query expects a table like:
//
//	CREATE TABLE mfabridge_users (
//	    username      text PRIMARY KEY,
//	    password_hash text NOT NULL,
//	    roles         text[] NOT NULL DEFAULT '{}',
//	    active        boolean NOT NULL DEFAULT true
//	);
package pgpasswd

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MrEthical07/mfabridge/callback"
	"github.com/MrEthical07/mfabridge/module"
	"github.com/MrEthical07/mfabridge/password"
)

const Type = "pgpasswd"

// DefaultQuery selects hash, roles and the active flag for $1.
const DefaultQuery = `SELECT password_hash, roles, active FROM mfabridge_users WHERE username = $1`

// Querier is the subset of *pgxpool.Pool the module uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Options is the decoded option block.
type Options struct {
	Query string `mapstructure:"query"`
}

type Module struct {
	db     Querier
	hasher *password.Argon2
	query  string
}

func New(db Querier, hasher *password.Argon2, opts Options) (*Module, error) {
	if db == nil {
		return nil, errors.New("pgpasswd: nil database")
	}
	if hasher == nil {
		return nil, errors.New("pgpasswd: nil hasher")
	}
	if opts.Query == "" {
		opts.Query = DefaultQuery
	}
	return &Module{db: db, hasher: hasher, query: opts.Query}, nil
}

// Factory returns a [module.Factory] sharing db and hasher.
func Factory(db Querier, hasher *password.Argon2) module.Factory {
	return func(options map[string]any) (module.Module, error) {
		var opts Options
		if err := module.DecodeOptions(options, &opts); err != nil {
			return nil, err
		}
		return New(db, hasher, opts)
	}
}

func (m *Module) Name() string { return Type }

func (m *Module) Login(ctx context.Context, h callback.Handler) (module.PrincipalSet, error) {
	username, secret, err := module.AskPassword(ctx, h)
	if err != nil {
		return nil, err
	}
	defer secret.Clear()

	var (
		hash   string
		roles  []string
		active bool
	)
	err = m.db.QueryRow(ctx, m.query, username).Scan(&hash, &roles, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			m.hasher.VerifyDummy(secret.Secret())
			return nil, module.Rejectf("user %q", username)
		}
		return nil, fmt.Errorf("pgpasswd: lookup %q: %w", username, err)
	}

	match, err := m.hasher.Verify(secret.Secret(), hash)
	if err != nil {
		if errors.Is(err, password.ErrSecretTooLong) {
			return nil, module.Rejectf("user %q: %v", username, err)
		}
		return nil, fmt.Errorf("pgpasswd: user %q: %w", username, err)
	}
	if !match {
		return nil, module.Rejectf("user %q", username)
	}
	if !active {
		return nil, fmt.Errorf("%w: user %q", module.ErrAccountExpired, username)
	}

	ps := module.NewPrincipalSet(module.UsernamePrincipal(username))
	for _, r := range roles {
		ps.Add(module.Principal{Type: module.PrincipalRole, Name: r})
	}
	return ps, nil
}

var _ module.Module = (*Module)(nil)
