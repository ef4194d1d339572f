package middleware

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/mfabridge/jwt"
	"github.com/MrEthical07/mfabridge/session"
)

func okHandler(t *testing.T, check func(r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func newStore(t *testing.T) *session.Store {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return session.NewStore(rdb, "", time.Hour, false)
}

func TestRequireSession(t *testing.T) {
	store := newStore(t)
	sess := &session.Session{Username: "alice", Principals: []string{"role:admin"}}
	if err := store.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create: %v", err)
	}

	h := RequireSession(store, "")(okHandler(t, func(r *http.Request) {
		got, ok := SessionFromContext(r.Context())
		if !ok || got.Username != "alice" {
			t.Fatalf("session not in context: %+v", got)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: sess.ID})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	for _, c := range []*http.Cookie{nil, {Name: DefaultCookieName, Value: "bogus"}} {
		req := httptest.NewRequest(http.MethodGet, "/app", nil)
		if c != nil {
			req.AddCookie(c)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("cookie %v: expected 401, got %d", c, rr.Code)
		}
	}
}

func TestRequireAssertionAndPrincipal(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	mgr, err := jwt.NewManager(jwt.Config{TTL: time.Minute, SigningMethod: jwt.MethodEd25519, PrivateKey: priv})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	tok, err := mgr.CreateAssertion(jwt.Assertion{Subject: "alice", Principals: []string{"role:admin"}})
	if err != nil {
		t.Fatalf("CreateAssertion: %v", err)
	}

	admin := RequireAssertion(mgr)(RequirePrincipal("role:admin")(okHandler(t, nil)))
	ops := RequireAssertion(mgr)(RequirePrincipal("role:ops")(okHandler(t, nil)))

	do := func(h http.Handler, auth string) int {
		req := httptest.NewRequest(http.MethodGet, "/api", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := do(admin, "Bearer "+tok); code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
	if code := do(ops, "Bearer "+tok); code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
	for _, auth := range []string{"", "Bearer ", "Basic abc", "Bearer not-a-token"} {
		if code := do(admin, auth); code != http.StatusUnauthorized {
			t.Fatalf("auth %q: expected 401, got %d", auth, code)
		}
	}
}

func TestNilGuards(t *testing.T) {
	for _, h := range []http.Handler{
		RequireSession(nil, "")(okHandler(t, nil)),
		RequireAssertion(nil)(okHandler(t, nil)),
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rr.Code)
		}
	}
}
