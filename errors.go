package mfabridge

import (
	"errors"

	"github.com/MrEthical07/mfabridge/callback"
	"github.com/MrEthical07/mfabridge/factor"
)

var (
	// ErrMissingCredentials is returned when the username or primary secret is
	// absent. The module chain is never invoked in that case.
	ErrMissingCredentials = factor.ErrMissingCredentials
	// ErrUnsupportedCallback marks a chain that asked for a request kind the
	// bridge does not implement. Callers see it as a system error.
	ErrUnsupportedCallback = callback.ErrUnsupportedCallback
	// ErrAuthenticationRejected is returned when the module chain refused the
	// presented credentials.
	ErrAuthenticationRejected = errors.New("authentication rejected")
	// ErrAuthenticationSystem is returned for every other failure. Its message
	// is fixed so that no internal detail reaches the caller.
	ErrAuthenticationSystem = errors.New("unknown authentication error")
	// ErrEngineNotReady is returned by a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ErrorKind classifies a failed attempt.
type ErrorKind uint8

const (
	KindNone ErrorKind = iota
	KindMissingCredentials
	KindUnsupportedCallback
	KindAuthenticationRejected
	KindAuthenticationSystemError
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredentials:
		return "missing_credentials"
	case KindUnsupportedCallback:
		return "unsupported_callback"
	case KindAuthenticationRejected:
		return "authentication_rejected"
	case KindAuthenticationSystemError:
		return "authentication_system_error"
	default:
		return "none"
	}
}

// AuthError is the classified failure of an authentication attempt. The
// original cause is kept for rejections only and is never part of Error()
// for system errors.
type AuthError struct {
	Kind  ErrorKind
	cause error
}

func newRejected(cause error) error {
	return &AuthError{Kind: KindAuthenticationRejected, cause: cause}
}

func newSystemError(cause error) error {
	return &AuthError{Kind: KindAuthenticationSystemError, cause: cause}
}

func (e *AuthError) Error() string {
	switch e.Kind {
	case KindAuthenticationRejected:
		return ErrAuthenticationRejected.Error()
	case KindMissingCredentials:
		return ErrMissingCredentials.Error()
	case KindUnsupportedCallback:
		return ErrUnsupportedCallback.Error()
	default:
		return ErrAuthenticationSystem.Error()
	}
}

// Is matches the sentinel for e.Kind.
func (e *AuthError) Is(target error) bool {
	switch e.Kind {
	case KindAuthenticationRejected:
		return target == ErrAuthenticationRejected
	case KindMissingCredentials:
		return target == ErrMissingCredentials
	case KindUnsupportedCallback:
		return target == ErrUnsupportedCallback
	case KindAuthenticationSystemError:
		return target == ErrAuthenticationSystem
	}
	return false
}

// Unwrap exposes the module's rejection so callers can test for
// module.ErrAccountLocked and friends. System causes stay hidden.
func (e *AuthError) Unwrap() error {
	if e.Kind == KindAuthenticationRejected {
		return e.cause
	}
	return nil
}

// LoginFailed reports whether the caller should display a "login failed"
// indicator. It is true for every kind.
func (e *AuthError) LoginFailed() bool {
	return e != nil && e.Kind != KindNone
}

// KindOf classifies err. Unclassified non-nil errors are system errors.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	switch {
	case errors.Is(err, ErrMissingCredentials):
		return KindMissingCredentials
	case errors.Is(err, ErrAuthenticationRejected):
		return KindAuthenticationRejected
	case errors.Is(err, ErrUnsupportedCallback):
		return KindUnsupportedCallback
	default:
		return KindAuthenticationSystemError
	}
}

// causeOf returns the hidden cause for diagnostics.
func causeOf(err error) error {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.cause
	}
	return err
}
