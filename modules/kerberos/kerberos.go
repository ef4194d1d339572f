// Package kerberos provides a module that verifies the primary factor with a
// Kerberos AS exchange against the realm's KDC.
//
// No keytab is needed: a successful exchange proves the password. The module
// adds a kerberos principal of the form user@REALM on success.
package kerberos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jcmturner/gokrb5/v8/client"
	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jcmturner/gokrb5/v8/iana/errorcode"
	"github.com/jcmturner/gokrb5/v8/messages"

	"github.com/MrEthical07/mfabridge/callback"
	"github.com/MrEthical07/mfabridge/module"
)

const Type = "kerberos"

// Authenticator performs one AS exchange.
type Authenticator interface {
	Authenticate(ctx context.Context, username, realm string, password []byte) error
}

// Options is the decoded option block.
type Options struct {
	Realm string `mapstructure:"realm"`
	// Krb5Conf is a path to krb5.conf. Krb5ConfString takes precedence.
	Krb5Conf       string `mapstructure:"krb5_conf"`
	Krb5ConfString string `mapstructure:"krb5_conf_string"`
	DisableFAST    bool   `mapstructure:"disable_pa_fx_fast"`
}

type Module struct {
	realm string
	auth  Authenticator
}

// New returns a module using auth for the exchange.
func New(realm string, auth Authenticator) (*Module, error) {
	if realm == "" {
		return nil, errors.New("kerberos: realm is required")
	}
	if auth == nil {
		return nil, errors.New("kerberos: nil authenticator")
	}
	return &Module{realm: realm, auth: auth}, nil
}

// Factory returns a [module.Factory] that loads krb5.conf per module.
func Factory() module.Factory {
	return func(options map[string]any) (module.Module, error) {
		opts := Options{Krb5Conf: "/etc/krb5.conf"}
		if err := module.DecodeOptions(options, &opts); err != nil {
			return nil, err
		}
		conf, err := loadConfig(opts)
		if err != nil {
			return nil, err
		}
		realm := opts.Realm
		if realm == "" {
			realm = conf.LibDefaults.DefaultRealm
		}
		return New(realm, &KDC{Config: conf, DisableFAST: opts.DisableFAST})
	}
}

func loadConfig(opts Options) (*krb5config.Config, error) {
	if opts.Krb5ConfString != "" {
		conf, err := krb5config.NewFromString(opts.Krb5ConfString)
		if err != nil {
			return nil, fmt.Errorf("kerberos: parse krb5 config: %w", err)
		}
		return conf, nil
	}
	conf, err := krb5config.Load(opts.Krb5Conf)
	if err != nil {
		return nil, fmt.Errorf("kerberos: load %s: %w", opts.Krb5Conf, err)
	}
	return conf, nil
}

func (m *Module) Name() string { return Type }

func (m *Module) Login(ctx context.Context, h callback.Handler) (module.PrincipalSet, error) {
	username, secret, err := module.AskPassword(ctx, h)
	if err != nil {
		return nil, err
	}
	defer secret.Clear()

	if username == "" || strings.ContainsAny(username, "@/") {
		return nil, module.Rejectf("malformed kerberos username %q", username)
	}
	if len(secret.Secret()) == 0 {
		return nil, module.Rejectf("empty password for %q", username)
	}

	if err := m.auth.Authenticate(ctx, username, m.realm, secret.Secret()); err != nil {
		return nil, classify(username, err)
	}

	return module.NewPrincipalSet(
		module.UsernamePrincipal(username),
		module.Principal{Type: module.PrincipalKerberos, Name: username + "@" + m.realm},
	), nil
}

// classify maps KDC error codes to rejections. Transport and configuration
// errors stay system errors.
func classify(username string, err error) error {
	var krbErr messages.KRBError
	if errors.As(err, &krbErr) {
		if mapped := byCode(krbErr.ErrorCode); mapped != nil {
			return fmt.Errorf("%w: %q", mapped, username)
		}
		return fmt.Errorf("kerberos: %w", err)
	}
	// The client flattens KDC replies into text.
	msg := err.Error()
	for _, code := range []int32{
		errorcode.KDC_ERR_PREAUTH_FAILED,
		errorcode.KDC_ERR_C_PRINCIPAL_UNKNOWN,
		errorcode.KDC_ERR_KEY_EXPIRED,
		errorcode.KDC_ERR_CLIENT_REVOKED,
	} {
		if strings.Contains(msg, errorcode.Lookup(code)) {
			return fmt.Errorf("%w: %q", byCode(code), username)
		}
	}
	return fmt.Errorf("kerberos: %w", err)
}

func byCode(code int32) error {
	switch code {
	case errorcode.KDC_ERR_PREAUTH_FAILED, errorcode.KDC_ERR_C_PRINCIPAL_UNKNOWN:
		return module.ErrInvalidCredentials
	case errorcode.KDC_ERR_KEY_EXPIRED:
		return module.ErrCredentialExpired
	case errorcode.KDC_ERR_CLIENT_REVOKED:
		return module.ErrAccountLocked
	}
	return nil
}

// KDC is the gokrb5-backed [Authenticator].
type KDC struct {
	Config      *krb5config.Config
	DisableFAST bool
}

// Authenticate runs the exchange. The client library takes the password as a
// string, so one immutable copy exists for the duration of the call.
func (k *KDC) Authenticate(ctx context.Context, username, realm string, password []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cl := client.NewWithPassword(username, realm, string(password), k.Config,
		client.DisablePAFXFAST(k.DisableFAST))
	defer cl.Destroy()
	return cl.Login()
}

var _ module.Module = (*Module)(nil)
