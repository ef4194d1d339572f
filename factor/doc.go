// Package factor turns the fields of a login request into an ordered list of
// wipeable secrets.
//
// # Ordering
//
// The primary secret always occupies slot 0. Supplementary factors are read
// from indexed keys (tokens[0], tokens[1], ...) and occupy slots 1..N in the
// order they are discovered. The scan stops at the first missing index, so a
// request carrying tokens[0] and tokens[2] yields a single supplementary
// factor. Sparse factor sets are not supported.
//
// # Buffers
//
// Secrets are held as []byte, never as string, so that [SecretList.Wipe] can
// overwrite them once the module chain is done with them.
//
// # What this package must NOT do
//
//   - Log or format secret values.
//   - Validate secrets. Validation belongs to the authentication modules.
//   - Import mfabridge or any module package.
package factor
