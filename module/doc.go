// Package module defines pluggable authentication modules and the chain that
// runs them.
//
// A [Module] pulls what it needs through a [callback.Handler] and either
// returns principals or fails. A [Chain] runs a configured list of modules,
// each tagged with a control [Flag]:
//
//   - [Required]: must succeed; the chain keeps going either way.
//   - [Requisite]: must succeed; a failure stops the chain.
//   - [Sufficient]: a success ends the chain when no required or requisite
//     entry has failed so far; a failure is ignored.
//   - [Optional]: neither required nor stopping.
//
// Chains are looked up by name from a [Registry]. [Factories] build a
// registry from declarative entries so that chain layout lives in
// configuration.
//
// # Failure classification
//
// A module reports a rejection by returning an error that wraps
// [ErrLoginFailed]. Any other error is an operational failure and is treated
// by callers as an authentication system error.
//
// # What this package must NOT do
//
//   - Hold per-attempt state on module values. Modules are shared by
//     concurrent attempts; [Committer] and [Aborter] hooks are handed the
//     attempt's handler instead.
//   - Recover panics. That is the invoker's job.
package module
