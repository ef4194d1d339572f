// Package password hashes and verifies primary secrets with Argon2id for the
// bundled password modules.
//
// Hashes use the PHC string form
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// with unpadded base64 salt and key (padded input verifies too). Secrets are
// byte slices so callers can wipe them. Hash storage belongs to the modules.
package password
