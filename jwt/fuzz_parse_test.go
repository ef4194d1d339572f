package jwt

import (
	"strings"
	"testing"
	"time"
)

// FuzzParseAssertion feeds arbitrary strings to a keyring-backed HS256
// manager. Parsing must never panic, and anything accepted must carry a
// subject and a trusted kid.
func FuzzParseAssertion(f *testing.F) {
	key := []byte(strings.Repeat("k", minHMACKeyBytes))
	mgr, err := NewManager(Config{
		TTL:           5 * time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    key,
		Issuer:        "mfabridge",
		Leeway:        30 * time.Second,
		RequireIAT:    true,
		KeyID:         "k1",
		VerifyKeys:    map[string][]byte{"k1": key},
	})
	if err != nil {
		f.Fatal(err)
	}

	seed, err := mgr.CreateAssertion(Assertion{Subject: "alice", AttemptID: "a1", Principals: []string{"username:alice"}, Factors: 2})
	if err != nil {
		f.Fatal(err)
	}
	for _, s := range []string{
		seed,
		"",
		"a.b",
		"a.b.c.d",
		"eyJhbGciOiJub25lIn0.eyJzdWIiOiJhbGljZSJ9.",
		"eyJhbGciOiJFZERTQSIsImtpZCI6ImsxIn0.eyJzdWIiOiJhbGljZSJ9.AAAA",
		seed[:len(seed)-2] + "xx",
	} {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := mgr.ParseAssertion(input)
		if err != nil {
			return
		}
		if claims == nil || claims.Subject == "" {
			t.Fatalf("accepted assertion without subject: %+v", claims)
		}
	})
}
