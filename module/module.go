package module

import (
	"context"
	"fmt"

	"github.com/MrEthical07/mfabridge/callback"
)

// Module authenticates one aspect of an attempt. Implementations must be
// safe for concurrent use.
type Module interface {
	Name() string
	Login(ctx context.Context, h callback.Handler) (PrincipalSet, error)
}

// Committer is implemented by modules that act once the whole chain has
// succeeded. A Commit error fails the attempt.
type Committer interface {
	Commit(ctx context.Context, h callback.Handler) error
}

// Aborter is implemented by modules that act once the whole chain has failed.
type Aborter interface {
	Abort(ctx context.Context, h callback.Handler)
}

// AskName requests the username from h.
func AskName(ctx context.Context, h callback.Handler) (string, error) {
	req := callback.NewNameRequest("Username: ")
	if err := h.Handle(ctx, []callback.Request{req}); err != nil {
		return "", err
	}
	name, ok := req.Name()
	if !ok {
		return "", ErrNameUnavailable
	}
	return name, nil
}

// AskPassword requests the username and a single secret, which is always
// the primary factor. The caller clears the returned request.
func AskPassword(ctx context.Context, h callback.Handler) (string, *callback.SecretRequest, error) {
	name := callback.NewNameRequest("Username: ")
	secret := callback.NewSecretRequest("Password: ")
	if err := h.Handle(ctx, []callback.Request{name, secret}); err != nil {
		return "", nil, err
	}
	username, ok := name.Name()
	if !ok {
		return "", nil, ErrNameUnavailable
	}
	return username, secret, nil
}

// AskFactors requests the username and every factor. The caller clears the
// returned request.
func AskFactors(ctx context.Context, h callback.Handler) (string, *callback.MultiSecretRequest, error) {
	name := callback.NewNameRequest("Username: ")
	factors := callback.NewMultiSecretRequest("Factors: ")
	if err := h.Handle(ctx, []callback.Request{name, factors}); err != nil {
		return "", nil, err
	}
	username, ok := name.Name()
	if !ok {
		return "", nil, ErrNameUnavailable
	}
	return username, factors, nil
}

// Rejectf returns a rejection wrapping [ErrInvalidCredentials].
func Rejectf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidCredentials}, args...)...)
}
