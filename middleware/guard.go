package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/mfabridge/jwt"
	"github.com/MrEthical07/mfabridge/session"
)

// DefaultCookieName is the session cookie set by the session continuation.
const DefaultCookieName = "mfabridge_session"

// SessionReader is the subset of *session.Store the guard uses.
type SessionReader interface {
	Get(ctx context.Context, id string) (*session.Session, error)
}

// AssertionParser is the subset of *jwt.Manager the bearer guard uses.
type AssertionParser interface {
	ParseAssertion(token string) (*jwt.AssertionClaims, error)
}

type sessionContextKey struct{}
type claimsContextKey struct{}

func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return s, ok
}

func ClaimsFromContext(ctx context.Context) (*jwt.AssertionClaims, bool) {
	c, ok := ctx.Value(claimsContextKey{}).(*jwt.AssertionClaims)
	return c, ok
}

// RequireSession admits requests carrying a live session cookie. An empty
// cookieName uses [DefaultCookieName].
func RequireSession(store SessionReader, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			sess, err := store.Get(r.Context(), c.Value)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAssertion admits requests with a valid bearer assertion.
func RequireAssertion(parser AssertionParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if parser == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := parser.ParseAssertion(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePrincipal must run after one of the guards above. It admits requests
// whose session or assertion carries principal, rendered as "type:name".
func RequirePrincipal(principal string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasPrincipal(r.Context(), principal) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasPrincipal(ctx context.Context, principal string) bool {
	if s, ok := SessionFromContext(ctx); ok && s.HasPrincipal(principal) {
		return true
	}
	c, ok := ClaimsFromContext(ctx)
	return ok && c.HasPrincipal(principal)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
