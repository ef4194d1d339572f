package flows

import (
	"testing"

	"github.com/MrEthical07/mfabridge/factor"
	"github.com/MrEthical07/mfabridge/module"
)

func TestAssembleAddsUsernamePrincipal(t *testing.T) {
	list := factor.NewSecretList([]byte("pw1"))
	out := Assemble("alice", list.Primary(), nil)
	if out.Principals.Len() != 1 || !out.Principals.Contains(module.UsernamePrincipal("alice")) {
		t.Fatalf("unexpected principals %v", out.Principals.Slice())
	}
}

func TestAssembleDedupesUsername(t *testing.T) {
	list := factor.NewSecretList([]byte("pw1"))
	in := module.NewPrincipalSet(module.UsernamePrincipal("alice"), module.Principal{Type: "role", Name: "user"})
	out := Assemble("alice", list.Primary(), in)
	if out.Principals.Len() != 2 {
		t.Fatalf("expected 2 principals, got %v", out.Principals.Slice())
	}
}

func TestAssembleKeepsPrimaryOnly(t *testing.T) {
	list := factor.NewSecretList([]byte("s3cr3t"), []byte("123456"))
	out := Assemble("bob", list.Primary(), module.NewPrincipalSet())
	if out.Username != "bob" || string(out.Secret) != "s3cr3t" {
		t.Fatalf("unexpected record %q/%q", out.Username, out.Secret)
	}

	list.Wipe()
	if string(out.Secret) != "s3cr3t" {
		t.Fatal("the outcome must hold its own copy of the primary factor")
	}
}

func TestAssembleLeavesInputUntouched(t *testing.T) {
	in := module.NewPrincipalSet()
	Assemble("carol", factor.NewSecretList([]byte("x")).Primary(), in)
	if in.Len() != 0 {
		t.Fatal("input set must not be modified")
	}
}
