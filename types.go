package mfabridge

import (
	"github.com/MrEthical07/mfabridge/module"
)

// Principal is an identity attribute asserted on success.
type Principal = module.Principal

// PrincipalSet is a set of principals deduplicated by (Type, Name).
type PrincipalSet = module.PrincipalSet

// CredentialTypeUsernamePassword is the only credential type recorded in an
// [Outcome].
const CredentialTypeUsernamePassword = "username-password"

// CredentialRecord notes which credential was presented. It carries the
// primary factor only; supplementary factors are consumed during
// verification and never retained.
type CredentialRecord struct {
	Type     string
	Username string
	Secret   []byte
}

// Wipe zeroes the recorded secret.
func (c *CredentialRecord) Wipe() {
	clear(c.Secret)
}

// Outcome is the result of a successful attempt.
type Outcome struct {
	// AttemptID correlates the attempt across logs and audit events.
	AttemptID string
	Username  string
	Chain     string
	// Factors is the number of secrets presented, primary included.
	Factors     int
	Principals  PrincipalSet
	Credentials []CredentialRecord
}

// Wipe zeroes every recorded secret. Continuations call it once they no
// longer need the credential.
func (o *Outcome) Wipe() {
	if o == nil {
		return
	}
	for i := range o.Credentials {
		o.Credentials[i].Wipe()
	}
}

// PrincipalNames returns the sorted names of principals of the given type.
func (o *Outcome) PrincipalNames(typ string) []string {
	if o == nil {
		return nil
	}
	return o.Principals.Names(typ)
}
