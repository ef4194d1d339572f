package module

import (
	"errors"
	"fmt"
)

// ErrLoginFailed is the root of every rejection. Modules wrap it (or one of
// its children) to say "the credentials were not accepted".
var ErrLoginFailed = errors.New("login failed")

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrLoginFailed)
	ErrAccountLocked      = fmt.Errorf("%w: account locked", ErrLoginFailed)
	ErrAccountExpired     = fmt.Errorf("%w: account expired", ErrLoginFailed)
	ErrCredentialExpired  = fmt.Errorf("%w: credential expired", ErrLoginFailed)
	ErrNoModuleSucceeded  = fmt.Errorf("%w: no module succeeded", ErrLoginFailed)
)

var (
	ErrEmptyChain        = errors.New("module chain has no entries")
	ErrUnknownChain      = errors.New("unknown module chain")
	ErrDuplicateChain    = errors.New("duplicate module chain")
	ErrUnknownModuleType = errors.New("unknown module type")
	ErrInvalidFlag       = errors.New("invalid control flag")
	ErrNameUnavailable   = errors.New("username not supplied by handler")
)
