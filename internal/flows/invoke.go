package flows

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/mfabridge/callback"
	"github.com/MrEthical07/mfabridge/factor"
	"github.com/MrEthical07/mfabridge/module"
)

// Chain is the part of a module chain the invoker drives.
type Chain interface {
	Login(ctx context.Context, h callback.Handler) (module.PrincipalSet, error)
}

// InvokeErrors carries host-level error constructors. Both receive the
// original cause, which must never become part of the returned message for
// system failures.
type InvokeErrors struct {
	Rejected func(cause error) error
	System   func(cause error) error
}

// InvokeDeps captures module invocation dependencies.
type InvokeDeps struct {
	Resolve func(name string) (Chain, error)
	Debug   func(msg string, args ...any)
	Errors  InvokeErrors
}

// Invoke resolves chainName and runs it against a bridge over username and
// secrets. Every failure, panics included, is reclassified here as either a
// rejection or a system error. The secret list is not wiped; its owner does
// that.
func Invoke(ctx context.Context, deps InvokeDeps, chainName, username string, secrets *factor.SecretList) (principals module.PrincipalSet, err error) {
	if deps.Debug == nil {
		deps.Debug = func(string, ...any) {}
	}
	if deps.Errors.Rejected == nil {
		deps.Errors.Rejected = func(cause error) error { return cause }
	}
	if deps.Errors.System == nil {
		deps.Errors.System = func(error) error { return errUnknownAuthentication }
	}

	defer func() {
		if r := recover(); r != nil {
			cause := &PanicError{Chain: chainName, Value: r}
			deps.Debug("authentication module panic", "chain", chainName, "username", username, "error", cause)
			principals, err = nil, deps.Errors.System(cause)
		}
	}()

	if deps.Resolve == nil {
		return nil, deps.Errors.System(errors.New("module chain resolver not configured"))
	}
	chain, rerr := deps.Resolve(chainName)
	if rerr != nil {
		deps.Debug("module chain resolution failed", "chain", chainName, "error", rerr)
		return nil, deps.Errors.System(rerr)
	}

	ps, lerr := chain.Login(ctx, callback.NewBridge(username, secrets))
	if lerr != nil {
		if errors.Is(lerr, module.ErrLoginFailed) {
			deps.Debug("authentication rejected", "chain", chainName, "username", username, "error", lerr)
			return nil, deps.Errors.Rejected(lerr)
		}
		deps.Debug("authentication system failure", "chain", chainName, "username", username, "error", lerr)
		return nil, deps.Errors.System(lerr)
	}
	if ps == nil {
		ps = module.NewPrincipalSet()
	}
	return ps, nil
}

var errUnknownAuthentication = errors.New("unknown authentication error")

// PanicError carries a value recovered from a module chain.
type PanicError struct {
	Chain string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("module chain %q panicked: %v", e.Chain, e.Value)
}
