// Package limiters provides the Redis-backed counters used by the bundled
// authentication modules.
//
// # Limiters
//
//   - [Lockout] counts failed attempts per username and reports a lock once
//     the threshold is reached.
//   - [ReplayGuard] remembers accepted one-time code steps so a code cannot be
//     used twice within its validity window.
//
// Both types are nil-safe where noted and own their own key namespace.
//
// # What this package must NOT do
//
//   - Import mfabridge or the module package. Modules decide what a lock or a
//     replay means for the attempt.
//   - Store secrets or codes. Only usernames and time steps appear in keys.
package limiters
