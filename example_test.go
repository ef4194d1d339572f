package mfabridge_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/mfabridge"
	"github.com/MrEthical07/mfabridge/callback"
	"github.com/MrEthical07/mfabridge/factor"
	"github.com/MrEthical07/mfabridge/module"
)

// codeModule accepts alice with password "pw" and code "123456".
type codeModule struct{}

func (codeModule) Name() string { return "example" }

func (codeModule) Login(ctx context.Context, h callback.Handler) (module.PrincipalSet, error) {
	username, factors, err := module.AskFactors(ctx, h)
	if err != nil {
		return nil, err
	}
	defer factors.Clear()

	pw, _ := factors.Factor(0)
	code, _ := factors.Factor(1)
	if username != "alice" || string(pw) != "pw" || string(code) != "123456" {
		return nil, module.ErrInvalidCredentials
	}
	return module.NewPrincipalSet(module.Principal{Type: module.PrincipalRole, Name: "staff"}), nil
}

// ExampleNew demonstrates engine construction around a single-module chain.
func ExampleNew() {
	chain, _ := module.NewChain(mfabridge.DefaultChainName, module.Entry{Module: codeModule{}, Flag: module.Required})

	engine, err := mfabridge.New().
		WithChain(chain).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		fmt.Println(err)
		return
	}
	defer engine.Close()

	fmt.Println(engine.Chains())
	// Output: [ShibUserPassAuth]
}

// ExampleEngine_Authenticate shows a login with a supplementary code and the
// classification of a failure.
func ExampleEngine_Authenticate() {
	chain, _ := module.NewChain(mfabridge.DefaultChainName, module.Entry{Module: codeModule{}, Flag: module.Required})
	engine, _ := mfabridge.New().WithChain(chain).Build()
	defer engine.Close()

	outcome, err := engine.Authenticate(context.Background(), factor.Fields{
		"j_username":  "alice",
		"j_password":  "pw",
		"j_tokens[0]": "123456",
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer outcome.Wipe()
	fmt.Println(outcome.Username, outcome.Factors, outcome.PrincipalNames(module.PrincipalRole))

	_, err = engine.Authenticate(context.Background(), factor.Fields{
		"j_username": "alice",
		"j_password": "pw",
	})
	fmt.Println(mfabridge.KindOf(err), errors.Is(err, mfabridge.ErrAuthenticationRejected))
	// Output:
	// alice 2 [staff]
	// authentication_rejected true
}

// ExampleEngine_MetricsSnapshot shows how to read in-process metrics counters.
func ExampleEngine_MetricsSnapshot() {
	chain, _ := module.NewChain(mfabridge.DefaultChainName, module.Entry{Module: codeModule{}, Flag: module.Required})
	engine, _ := mfabridge.New().WithChain(chain).WithMetricsEnabled(true).Build()
	defer engine.Close()

	_, _ = engine.Authenticate(context.Background(), factor.Fields{"j_username": "alice"})

	snapshot := engine.MetricsSnapshot()
	fmt.Println(snapshot.Counters[mfabridge.MetricMissingCredentials])
	// Output: 1
}
