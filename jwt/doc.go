// Package jwt signs and verifies the identity assertion handed to a relying
// application after a successful login.
//
// An assertion carries the username as subject, the attempt id as token id,
// the principal names, the chain name and the authentication context class.
// It never carries secrets.
package jwt
