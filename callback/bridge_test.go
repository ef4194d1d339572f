package callback

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/mfabridge/factor"
)

func threeFactors() *factor.SecretList {
	return factor.NewSecretList([]byte("p0"), []byte("p1"), []byte("p2"))
}

func TestBridgeSingleSlotEndsWithPrimary(t *testing.T) {
	secrets := threeFactors()
	req := NewSecretRequest("Password: ")

	if err := NewBridge("alice", secrets).Handle(context.Background(), []Request{req}); err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if string(req.Secret()) != "p0" {
		t.Fatalf("expected primary factor p0, got %q", req.Secret())
	}
}

func TestBridgeMultiSlotObservesReverseOrder(t *testing.T) {
	req := NewMultiSecretRequest("Factors: ")

	if err := NewBridge("alice", threeFactors()).Handle(context.Background(), []Request{req}); err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	got := req.Secrets()
	want := []string{"p2", "p1", "p0"}
	if len(got) != len(want) {
		t.Fatalf("expected %d secrets, got %d", len(want), len(got))
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Fatalf("delivery %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	factors := req.Factors()
	for i, w := range []string{"p0", "p1", "p2"} {
		if string(factors[i]) != w {
			t.Fatalf("slot %d: expected %q, got %q", i, w, factors[i])
		}
	}
	if v, ok := req.Factor(1); !ok || string(v) != "p1" {
		t.Fatalf("Factor(1): expected p1, got %q ok=%v", v, ok)
	}
	if _, ok := req.Factor(3); ok {
		t.Fatal("Factor(3) must be out of range")
	}
}

func TestBridgeRepeatedSecretRequestsSeeSameOrder(t *testing.T) {
	secrets := threeFactors()
	first := NewMultiSecretRequest("")
	second := NewMultiSecretRequest("")
	single := NewSecretRequest("")

	err := NewBridge("alice", secrets).Handle(context.Background(), []Request{first, single, second})
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	for i := range first.Secrets() {
		if string(first.Secrets()[i]) != string(second.Secrets()[i]) {
			t.Fatalf("delivery order changed between requests: %q vs %q", first.Secrets(), second.Secrets())
		}
	}
	if string(single.Secret()) != "p0" {
		t.Fatalf("expected p0, got %q", single.Secret())
	}
	if string(secrets.At(0).Bytes()) != "p0" {
		t.Fatal("bridge must not reorder the secret list")
	}
}

func TestBridgeName(t *testing.T) {
	name := NewNameRequest("Username: ")
	if _, ok := name.Name(); ok {
		t.Fatal("unanswered request must report not set")
	}
	if err := NewBridge("alice", threeFactors()).Handle(context.Background(), []Request{name}); err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if got, ok := name.Name(); !ok || got != "alice" {
		t.Fatalf("expected alice, got %q ok=%v", got, ok)
	}
}

func TestBridgeMixedBatchAnyOrder(t *testing.T) {
	secret := NewSecretRequest("")
	name1 := NewNameRequest("")
	name2 := NewNameRequest("")

	err := NewBridge("bob", factor.NewSecretList([]byte("only"))).Handle(context.Background(), []Request{secret, name1, name2})
	if err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if string(secret.Secret()) != "only" {
		t.Fatalf("unexpected secret %q", secret.Secret())
	}
	for _, n := range []*NameRequest{name1, name2} {
		if got, _ := n.Name(); got != "bob" {
			t.Fatalf("expected bob, got %q", got)
		}
	}
}

func TestBridgeUnsupported(t *testing.T) {
	name := NewNameRequest("")
	after := NewNameRequest("")
	err := NewBridge("alice", threeFactors()).Handle(context.Background(), []Request{
		name,
		&UnsupportedRequest{Name: "confirmation"},
		after,
	})
	if !errors.Is(err, ErrUnsupportedCallback) {
		t.Fatalf("expected ErrUnsupportedCallback, got %v", err)
	}
	var ue *UnsupportedCallbackError
	if !errors.As(err, &ue) || ue.Kind != "confirmation" {
		t.Fatalf("expected kind confirmation, got %v", err)
	}
	if _, ok := after.Name(); ok {
		t.Fatal("requests after the unsupported one must not be answered")
	}
}

func TestBridgeNilRequest(t *testing.T) {
	err := NewBridge("alice", threeFactors()).Handle(context.Background(), []Request{nil})
	if !errors.Is(err, ErrUnsupportedCallback) {
		t.Fatalf("expected ErrUnsupportedCallback, got %v", err)
	}
}

func TestBridgeTypedNilRequests(t *testing.T) {
	for _, req := range []Request{
		(*NameRequest)(nil),
		(*SecretRequest)(nil),
		(*MultiSecretRequest)(nil),
	} {
		var ue *UnsupportedCallbackError
		err := NewBridge("alice", threeFactors()).Handle(context.Background(), []Request{req})
		if !errors.As(err, &ue) || ue.Kind != "nil" {
			t.Fatalf("%T: expected nil kind unsupported error, got %v", req, err)
		}
	}
}

func TestBridgeEmptyBatch(t *testing.T) {
	b := NewBridge("alice", threeFactors())
	if err := b.Handle(context.Background(), nil); err != nil {
		t.Fatalf("nil batch: %v", err)
	}
	if err := b.Handle(context.Background(), []Request{}); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

func TestRequestsHoldCopies(t *testing.T) {
	secrets := threeFactors()
	single := NewSecretRequest("")
	multi := NewMultiSecretRequest("")

	if err := NewBridge("alice", secrets).Handle(context.Background(), []Request{single, multi}); err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	secrets.Wipe()

	if string(single.Secret()) != "p0" {
		t.Fatalf("single request must survive list wipe, got %q", single.Secret())
	}
	if string(multi.Secrets()[0]) != "p2" {
		t.Fatalf("multi request must survive list wipe, got %q", multi.Secrets()[0])
	}

	held := single.Secret()
	single.Clear()
	for _, b := range held {
		if b != 0 {
			t.Fatal("Clear must zero the held secret")
		}
	}
	multi.Clear()
	if len(multi.Secrets()) != 0 {
		t.Fatal("Clear must drop accumulated secrets")
	}
}

func TestSecretRequestOverwriteZeroesPrevious(t *testing.T) {
	req := NewSecretRequest("")
	req.SetSecret([]byte("first"))
	prev := req.Secret()
	req.SetSecret([]byte("second"))
	for _, b := range prev {
		if b != 0 {
			t.Fatalf("previous value not zeroed: %q", prev)
		}
	}
}
