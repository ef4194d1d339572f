// Package middleware guards downstream routes with the result of a
// completed login.
//
// # Guards
//
//   - [RequireSession] checks the session cookie against the session store.
//   - [RequireAssertion] verifies a bearer identity assertion.
//   - [RequirePrincipal] narrows either guard to one principal.
//
// # What this package must NOT do
//
//   - Run module chains or touch secrets. Logins happen in httpauth.
//   - Reveal why a request was refused.
package middleware
