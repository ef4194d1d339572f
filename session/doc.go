// Package session provides the Redis-backed session store used by the
// session continuation after a successful login.
//
// Records are versioned JSON. Each user has an index set so that all of the
// user's sessions can be revoked together.
//
// # What this package must NOT do
//
//   - Import mfabridge or httpauth (no upward imports).
//   - Store secrets. A session holds the username, chain, method, attempt id
//     and principal names only.
package session
