package password

import (
	"errors"
	"strings"
	"testing"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.Memory = 8 * 1024
	cfg.Time = 1
	cfg.Parallelism = 1
	return cfg
}

func newHasher(t *testing.T, cfg Config) *Argon2 {
	t.Helper()
	h, err := NewArgon2(cfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	return h
}

func TestHashAndVerify(t *testing.T) {
	hasher := newHasher(t, fastConfig())

	hash, err := hasher.Hash([]byte("P@ssw0rd-Ascii"))
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify([]byte("P@ssw0rd-Ascii"), hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = hasher.Verify([]byte("wrong-password"), hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, ok=%v err=%v", ok, err)
	}
}

func TestVerifyAcceptsPaddedEncoding(t *testing.T) {
	hasher := newHasher(t, fastConfig())
	hash := "$argon2id$v=19$m=8192,t=1,p=1$MDEyMzQ1Njc4OWFiY2RlZg==$AAAAAAAAAAAAAAAAAAAAAA=="
	ok, err := hasher.Verify([]byte("anything-long"), hash)
	if err != nil {
		t.Fatalf("padded base64 must parse: %v", err)
	}
	if ok {
		t.Fatal("zero hash must not verify")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := newHasher(t, fastConfig())
	for _, h := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
	} {
		if _, err := hasher.Verify([]byte("password123"), h); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("%q: expected ErrInvalidHash, got %v", h, err)
		}
	}
}

func TestHashLengthLimits(t *testing.T) {
	hasher := newHasher(t, fastConfig())
	if _, err := hasher.Hash([]byte("short")); !errors.Is(err, ErrSecretTooShort) {
		t.Fatalf("expected ErrSecretTooShort, got %v", err)
	}
	long := []byte(strings.Repeat("a", DefaultMaxSecretBytes+1))
	if _, err := hasher.Hash(long); !errors.Is(err, ErrSecretTooLong) {
		t.Fatalf("expected ErrSecretTooLong, got %v", err)
	}
	if _, err := hasher.Verify(long, "$argon2id$x"); !errors.Is(err, ErrSecretTooLong) {
		t.Fatalf("expected ErrSecretTooLong on verify, got %v", err)
	}
}

func TestVerifyShortSecretAllowed(t *testing.T) {
	cfg := fastConfig()
	cfg.MinSecretBytes = 0
	lenient := newHasher(t, cfg)
	hash, err := lenient.Hash([]byte("abc"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	strict := newHasher(t, fastConfig())
	if ok, err := strict.Verify([]byte("abc"), hash); err != nil || !ok {
		t.Fatalf("verify must not enforce the minimum, ok=%v err=%v", ok, err)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak := newHasher(t, fastConfig())
	hash, err := weak.Hash([]byte("upgrade-me-please"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	if up, _ := weak.NeedsUpgrade(hash); up {
		t.Fatal("same parameters must not need upgrade")
	}
	stronger := fastConfig()
	stronger.Time = 2
	if up, _ := newHasher(t, stronger).NeedsUpgrade(hash); !up {
		t.Fatal("expected upgrade with higher time cost")
	}
}

func TestVerifyDummy(t *testing.T) {
	hasher := newHasher(t, fastConfig())
	hasher.VerifyDummy([]byte("whatever"))
	hasher.VerifyDummy([]byte("again"))
	if hasher.dummy == "" {
		t.Fatal("expected dummy hash to be prepared")
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cfg := fastConfig()
	cfg.SaltLength = 8
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected weak salt length to be rejected")
	}
}
