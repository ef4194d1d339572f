package httpauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/mfabridge"
	"github.com/MrEthical07/mfabridge/jwt"
	"github.com/MrEthical07/mfabridge/session"
)

// ReturnParam is the form field naming a local path to continue to.
const ReturnParam = "return_to"

// SessionCreator is the subset of *session.Store the continuation uses.
type SessionCreator interface {
	Create(ctx context.Context, sess *session.Session) error
	TTL() time.Duration
}

// SessionContinuation stores a session, sets its cookie and redirects.
type SessionContinuation struct {
	Store      SessionCreator
	CookieName string
	// Secure marks the cookie HTTPS-only.
	Secure bool
	// Redirect is the default landing path. Empty means "/".
	Redirect string
}

func (c *SessionContinuation) Proceed(w http.ResponseWriter, r *http.Request, outcome *mfabridge.Outcome, method string) error {
	if c.Store == nil {
		return errors.New("session continuation has no store")
	}
	sess := &session.Session{
		Username:   outcome.Username,
		Chain:      outcome.Chain,
		Method:     method,
		AttemptID:  outcome.AttemptID,
		Principals: renderPrincipals(outcome),
	}
	if err := c.Store.Create(r.Context(), sess); err != nil {
		return err
	}

	name := c.CookieName
	if name == "" {
		name = "mfabridge_session"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(c.Store.TTL().Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, returnTo(r, c.Redirect), http.StatusSeeOther)
	return nil
}

// AssertionIssuer is the subset of *jwt.Manager the continuation uses.
type AssertionIssuer interface {
	CreateAssertion(a jwt.Assertion) (string, error)
	TTL() time.Duration
}

// AssertionContinuation signs an identity assertion. With a ReturnURL the
// browser is redirected there with the token in Param; without one the token
// is written as JSON.
type AssertionContinuation struct {
	Issuer    AssertionIssuer
	ReturnURL string
	// Param defaults to "assertion".
	Param string
}

type assertionResponse struct {
	Assertion string `json:"assertion"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

func (c *AssertionContinuation) Proceed(w http.ResponseWriter, r *http.Request, outcome *mfabridge.Outcome, method string) error {
	if c.Issuer == nil {
		return errors.New("assertion continuation has no issuer")
	}
	token, err := c.Issuer.CreateAssertion(jwt.Assertion{
		Subject:    outcome.Username,
		AttemptID:  outcome.AttemptID,
		Principals: renderPrincipals(outcome),
		Method:     method,
		Chain:      outcome.Chain,
		Factors:    outcome.Factors,
	})
	if err != nil {
		return err
	}

	if c.ReturnURL == "" {
		w.Header().Set("Content-Type", "application/json")
		return json.NewEncoder(w).Encode(assertionResponse{
			Assertion: token,
			TokenType: "Bearer",
			ExpiresIn: int(c.Issuer.TTL().Seconds()),
		})
	}

	u, err := url.Parse(c.ReturnURL)
	if err != nil {
		return err
	}
	param := c.Param
	if param == "" {
		param = "assertion"
	}
	q := u.Query()
	q.Set(param, token)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
	return nil
}

func renderPrincipals(outcome *mfabridge.Outcome) []string {
	ps := outcome.Principals.Slice()
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

// returnTo honors a posted local path and falls back to def.
func returnTo(r *http.Request, def string) string {
	if def == "" {
		def = "/"
	}
	target := r.PostFormValue(ReturnParam)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return def
	}
	return target
}
