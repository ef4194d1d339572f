// Package httpauth is the HTTP face of the login bridge.
//
// [LoginHandler] reads the login form, runs the engine, and then either hands
// the [mfabridge.Outcome] to a [Continuation] or hands the classified failure
// to a [FailureResponder]. The default responder redirects to the login page
// with the failure marker set and the error kind attached.
//
// Two continuations are provided: [SessionContinuation] stores a server-side
// session and sets a cookie, [AssertionContinuation] hands a signed identity
// assertion to the relying application.
//
// # What this package must NOT do
//
//   - Put a secret, or the text of a module error, into a response.
//   - Accept credentials from the query string.
package httpauth
