package mfabridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/MrEthical07/mfabridge/module"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{&AuthError{Kind: KindMissingCredentials}, KindMissingCredentials},
		{ErrMissingCredentials, KindMissingCredentials},
		{fmt.Errorf("wrapped: %w", newRejected(module.ErrAccountLocked)), KindAuthenticationRejected},
		{newSystemError(errors.New("x")), KindAuthenticationSystemError},
		{ErrUnsupportedCallback, KindUnsupportedCallback},
		{errors.New("anything else"), KindAuthenticationSystemError},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Fatalf("KindOf(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestAuthErrorRejectedKeepsCause(t *testing.T) {
	err := newRejected(module.ErrAccountLocked)
	if !errors.Is(err, ErrAuthenticationRejected) || !errors.Is(err, module.ErrAccountLocked) {
		t.Fatalf("unexpected matching for %v", err)
	}
	if err.Error() != "authentication rejected" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if auditErrorCode(err) != auditErrAccountLocked {
		t.Fatalf("unexpected audit code %q", auditErrorCode(err))
	}
}

func TestAuthErrorSystemHidesCause(t *testing.T) {
	secret := errors.New("connect to 10.1.2.3:5432 as admin failed")
	err := newSystemError(secret)
	if err.Error() != "unknown authentication error" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if errors.Is(err, secret) {
		t.Fatal("system error must not unwrap to its cause")
	}
	if !errors.Is(err, ErrAuthenticationSystem) {
		t.Fatal("expected ErrAuthenticationSystem")
	}
	if causeOf(err) != secret {
		t.Fatal("diagnostic cause must still be reachable internally")
	}
}

func TestErrorKindString(t *testing.T) {
	if KindAuthenticationRejected.String() != "authentication_rejected" || ErrorKind(99).String() != "none" {
		t.Fatal("unexpected kind strings")
	}
}
