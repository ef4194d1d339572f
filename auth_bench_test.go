package mfabridge

import (
	"context"
	"testing"

	"github.com/MrEthical07/mfabridge/factor"
	"github.com/MrEthical07/mfabridge/module"
)

func newBenchmarkEngine(b *testing.B, metrics bool) *Engine {
	b.Helper()
	chain, err := module.NewChain(DefaultChainName, module.Entry{Module: &otpModule{}, Flag: module.Required})
	if err != nil {
		b.Fatalf("NewChain: %v", err)
	}
	engine, err := New().WithChain(chain).WithMetricsEnabled(metrics).WithLatencyHistograms(metrics).Build()
	if err != nil {
		b.Fatalf("Build: %v", err)
	}
	b.Cleanup(engine.Close)
	return engine
}

func benchFields() factor.Fields {
	return factor.Fields{
		factor.DefaultUsernameKey: "bob",
		factor.DefaultPrimaryKey:  "s3cr3t",
		"j_tokens[0]":             "123456",
	}
}

func BenchmarkAuthenticate(b *testing.B) {
	engine := newBenchmarkEngine(b, false)
	fields := benchFields()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		outcome, err := engine.Authenticate(context.Background(), fields)
		if err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
		outcome.Wipe()
	}
}

func BenchmarkAuthenticateWithMetrics(b *testing.B) {
	engine := newBenchmarkEngine(b, true)
	fields := benchFields()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		outcome, err := engine.Authenticate(context.Background(), fields)
		if err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
		outcome.Wipe()
	}
}

func BenchmarkAuthenticateParallel(b *testing.B) {
	engine := newBenchmarkEngine(b, true)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		fields := benchFields()
		for pb.Next() {
			outcome, err := engine.Authenticate(context.Background(), fields)
			if err != nil {
				b.Errorf("authenticate failed: %v", err)
				return
			}
			outcome.Wipe()
		}
	})
}

func BenchmarkAuthenticateMissingCredentials(b *testing.B) {
	engine := newBenchmarkEngine(b, true)
	fields := factor.Fields{factor.DefaultUsernameKey: "bob"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Authenticate(context.Background(), fields); err == nil {
			b.Fatal("expected failure")
		}
	}
}
