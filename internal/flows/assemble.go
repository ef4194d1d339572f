package flows

import (
	"github.com/MrEthical07/mfabridge/factor"
	"github.com/MrEthical07/mfabridge/module"
)

// AssembledOutcome is the flow-local success shape.
type AssembledOutcome struct {
	Principals module.PrincipalSet
	Username   string
	// Secret is a private copy of slot 0.
	Secret []byte
}

// Assemble adds the username principal to principals and records the
// primary factor. Supplementary factors are not retained. principals is not
// modified.
func Assemble(username string, primary factor.Credential, principals module.PrincipalSet) AssembledOutcome {
	out := module.NewPrincipalSet()
	out.Merge(principals)
	out.Add(module.UsernamePrincipal(username))

	secret := make([]byte, primary.Len())
	copy(secret, primary.Bytes())

	return AssembledOutcome{
		Principals: out,
		Username:   username,
		Secret:     secret,
	}
}
