// Package mfabridge collects a username, a primary secret and any number of
// supplementary authentication factors from a login request and drives a
// pluggable chain of authentication modules with them.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Pipeline
//
// [Engine.Authenticate] runs three steps. Factor extraction
// (package factor) turns request fields into an ordered secret list with the
// primary factor at slot 0. Module invocation runs the configured chain
// against a callback bridge (package callback) that hands secrets out in
// reverse slot order, so password-only modules see the primary factor and
// multi-factor modules see all of them. Outcome assembly adds the username
// principal and records the primary credential.
//
// # Architecture boundaries
//
// mfabridge is the public surface. It exposes [Engine], [Builder], [Config],
// and value types ([Outcome], [AuthError], MetricsSnapshot). Flow orchestration
// and audit dispatch live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Log or return secret values. Only factor counts and non-secret
//     identifiers reach logs and audit events.
//   - Return the cause of an unexpected failure to the caller. It is written
//     to the debug log only.
//   - Keep per-attempt state on the Engine.
//   - Import any sub-package that re-imports mfabridge (no import cycles).
package mfabridge
