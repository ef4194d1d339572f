// Package flows contains the pure-function orchestrators behind
// Engine.Authenticate.
//
// [Invoke] runs a named module chain against a callback bridge and is the
// single place where module failures are reclassified. [Assemble] turns a
// verified principal set into the success shape. Both accept plain values and
// typed dependency structs so they can be tested without an Engine.
//
// # Architecture boundaries
//
// Flow functions coordinate the chain registry, the callback bridge and the
// diagnostic logger. They do NOT own any of these; ownership stays with the
// Engine, which also owns and wipes the secret list.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import mfabridge (to avoid import cycles).
//   - Put a cause's text into a system error returned to the caller.
//   - Log secret values.
package flows
