package callback

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/mfabridge/factor"
)

// ErrUnsupportedCallback is wrapped by every [UnsupportedCallbackError].
var ErrUnsupportedCallback = errors.New("unsupported callback")

// UnsupportedCallbackError names the request kind the handler refused.
type UnsupportedCallbackError struct {
	Kind string
}

func (e *UnsupportedCallbackError) Error() string {
	return fmt.Sprintf("unsupported callback: %s", e.Kind)
}

func (e *UnsupportedCallbackError) Unwrap() error {
	return ErrUnsupportedCallback
}

// Handler answers batches of requests issued by a module chain.
type Handler interface {
	Handle(ctx context.Context, requests []Request) error
}

// HandlerFunc adapts a function to [Handler].
type HandlerFunc func(ctx context.Context, requests []Request) error

func (f HandlerFunc) Handle(ctx context.Context, requests []Request) error {
	return f(ctx, requests)
}

// Bridge answers name requests with a fixed username and secret requests
// with an ordered secret list. One Bridge serves one attempt.
type Bridge struct {
	username string
	secrets  *factor.SecretList
}

// NewBridge binds a username and secret list for a single attempt. The bridge
// does not take ownership of secrets; the caller wipes them.
func NewBridge(username string, secrets *factor.SecretList) *Bridge {
	return &Bridge{username: username, secrets: secrets}
}

// Handle fills every request in order and stops at the first unsupported one.
// An empty batch is a no-op.
func (b *Bridge) Handle(_ context.Context, requests []Request) error {
	for _, req := range requests {
		switch r := req.(type) {
		case *NameRequest:
			if r == nil {
				return &UnsupportedCallbackError{Kind: "nil"}
			}
			r.SetName(b.username)
		case *SecretRequest:
			if r == nil {
				return &UnsupportedCallbackError{Kind: "nil"}
			}
			b.secrets.Reversed(func(c factor.Credential) {
				r.SetSecret(c.Bytes())
			})
		case *MultiSecretRequest:
			if r == nil {
				return &UnsupportedCallbackError{Kind: "nil"}
			}
			b.secrets.Reversed(func(c factor.Credential) {
				r.SetSecret(c.Bytes())
			})
		case nil:
			return &UnsupportedCallbackError{Kind: "nil"}
		default:
			return &UnsupportedCallbackError{Kind: req.Kind()}
		}
	}
	return nil
}

var _ Handler = (*Bridge)(nil)
