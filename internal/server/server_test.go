package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/mfabridge/internal/config"
	"github.com/MrEthical07/mfabridge/internal/otp"
	"github.com/MrEthical07/mfabridge/password"
)

const (
	testPassword = "correct-horse-battery"
	testSecret   = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
)

func cheapPassword() password.Config {
	cfg := password.DefaultConfig()
	cfg.Memory = 8 * 1024
	cfg.Time = 1
	cfg.Parallelism = 1
	cfg.KeyLength = 16
	return cfg
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	hasher, err := password.NewArgon2(cheapPassword())
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	hash, err := hasher.Hash([]byte(testPassword))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	cfg := config.Sample(hash, testSecret)
	cfg.Password = cheapPassword()
	cfg.Engine.AuditEnabled = false
	if mutate != nil {
		mutate(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	srv, err := Build(context.Background(), cfg, Deps{Redis: rdb})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return ts
}

func noRedirect() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func currentCode(t *testing.T) string {
	t.Helper()
	secret, err := otp.DecodeSecret(testSecret)
	if err != nil {
		t.Fatalf("DecodeSecret: %v", err)
	}
	code, err := otp.Code(secret, time.Now().Unix()/30, 6, "SHA1")
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	return code
}

func postLogin(t *testing.T, ts *httptest.Server, form url.Values) *http.Response {
	t.Helper()
	resp, err := noRedirect().PostForm(ts.URL+"/Authn/UserPassword", form)
	if err != nil {
		t.Fatalf("POST login: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestLoginWithPasswordAndCodeCreatesSession(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := postLogin(t, ts, url.Values{
		"j_username":  {"admin"},
		"j_password":  {testPassword},
		"j_tokens[0]": {currentCode(t)},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "mfabridge_session" {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected session cookie")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/whoami", nil)
	req.AddCookie(cookie)
	who, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET whoami: %v", err)
	}
	defer who.Body.Close()
	if who.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", who.StatusCode)
	}
	var id identity
	if err := json.NewDecoder(who.Body).Decode(&id); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id.Username != "admin" || id.Chain != "ShibUserPassAuth" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if !slices.Contains(id.Principals, "role:admin") {
		t.Fatalf("expected role principal, got %v", id.Principals)
	}
	if ttl := time.Until(id.ExpiresAt); ttl <= 7*time.Hour || ttl > 8*time.Hour+time.Minute {
		t.Fatalf("expected session expiry about 8h out, got %v", id.ExpiresAt)
	}
}

func TestLoginWithoutCodeRedirectsToLoginPage(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := postLogin(t, ts, url.Values{
		"j_username": {"admin"},
		"j_password": {testPassword},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if loc.Path != "/login.jsp" || loc.Query().Get("loginFailed") != "true" {
		t.Fatalf("unexpected redirect %q", loc)
	}
	if got := loc.Query().Get("loginError"); got != "authentication_rejected" {
		t.Fatalf("expected rejection kind, got %q", got)
	}
	if strings.Contains(resp.Header.Get("Location"), testPassword) {
		t.Fatal("redirect must not leak the password")
	}
}

func TestPasswordOnlyChain(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Engine.ChainName = "PasswordOnly" })

	resp := postLogin(t, ts, url.Values{"j_username": {"admin"}, "j_password": {testPassword}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("expected success redirect, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestLoginPageRendersFailure(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/login.jsp?loginFailed=true&loginError=authentication_rejected&actionUrl=%2FAuthn%2FUserPassword")
	if err != nil {
		t.Fatalf("GET login page: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	if !strings.Contains(page, `action="/Authn/UserPassword"`) {
		t.Fatalf("expected form action, got:\n%s", page)
	}
	if !strings.Contains(page, "not accepted") || !strings.Contains(page, `name="j_tokens[0]"`) {
		t.Fatalf("expected failure message and token field, got:\n%s", page)
	}
}

func TestLoginPageIgnoresForeignAction(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/login.jsp?actionUrl=https%3A%2F%2Fevil.example%2F")
	if err != nil {
		t.Fatalf("GET login page: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "evil.example") {
		t.Fatal("foreign action must be replaced")
	}
}

func TestWhoamiRequiresSession(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/whoami")
	if err != nil {
		t.Fatalf("GET whoami: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Engine.ChainName = "PasswordOnly" })
	postLogin(t, ts, url.Values{"j_username": {"admin"}, "j_password": {testPassword}})
	postLogin(t, ts, url.Values{"j_username": {"admin"}, "j_password": {"wrong-password-value"}})

	health, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	defer health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("expected healthy, got %d", health.StatusCode)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"mfabridge_login_success_total 1", "mfabridge_login_rejected_total 1"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %q in metrics:\n%s", want, body)
		}
	}
}

func TestAssertionContinuation(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Engine.ChainName = "PasswordOnly"
		c.Server.Continuation = "assertion"
		c.Server.ReturnURL = "https://sp.example/acs"
		c.JWT.Secret = strings.Repeat("s", 32)
	})

	resp := postLogin(t, ts, url.Values{"j_username": {"admin"}, "j_password": {testPassword}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	loc, _ := url.Parse(resp.Header.Get("Location"))
	token := loc.Query().Get("assertion")
	if loc.Host != "sp.example" || token == "" {
		t.Fatalf("unexpected redirect %q", loc)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	who, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET whoami: %v", err)
	}
	defer who.Body.Close()
	if who.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", who.StatusCode)
	}
}

func TestBuildRejectsUnknownModuleType(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := config.GetDefaultConfig()
	cfg.Chains[0].Modules[0].Type = "ldap"
	if _, err := Build(context.Background(), cfg, Deps{Redis: rdb}); err == nil {
		t.Fatal("expected error for unknown module type")
	}
}
