// Package callback implements the narrow request protocol through which an
// authentication module chain pulls a username and secrets from the caller.
//
// A module issues a batch of [Request] values to a [Handler]. The set of
// request kinds is closed: [NameRequest], [SecretRequest],
// [MultiSecretRequest] and [UnsupportedRequest]. The last one exists so that
// modules can surface prompts this bridge does not implement; the [Bridge]
// answers it with [ErrUnsupportedCallback] instead of ignoring it.
//
// # Delivery policy
//
// The [Bridge] delivers secrets in reverse slot order, so the primary factor
// is always delivered last. A [SecretRequest] keeps only the latest value and
// therefore ends up holding the primary factor; a [MultiSecretRequest] keeps
// every value and observes all factors, highest slot first. Modules that only
// know about "the password" keep working unchanged while multi-factor aware
// modules see everything.
//
// # What this package must NOT do
//
//   - Validate secrets.
//   - Hand out the secret list's own buffers. Requests always hold copies.
package callback
