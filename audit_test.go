package mfabridge

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/mfabridge/factor"
)

func auditEngine(t *testing.T) (*Engine, *ChannelSink) {
	t.Helper()
	sink := NewChannelSink(16)
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	e := newTestEngine(t, &otpModule{}, func(b *Builder) {
		b.WithConfig(cfg).WithAuditSink(sink)
	})
	return e, sink
}

func nextEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
	}
	return AuditEvent{}
}

func TestAuditLoginSuccess(t *testing.T) {
	e, sink := auditEngine(t)
	ctx := WithUserAgent(WithClientIP(context.Background(), "198.51.100.7"), "curl/8")

	outcome, err := e.Authenticate(ctx, factor.Fields{"j_username": "bob", "j_password": "s3cr3t", "j_tokens[0]": "123456"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	ev := nextEvent(t, sink)
	if ev.EventType != "login_success" || !ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Username != "bob" || ev.IP != "198.51.100.7" || ev.AttemptID != outcome.AttemptID {
		t.Fatalf("unexpected identifiers %+v", ev)
	}
	if ev.Metadata["factors"] != "2" || ev.Metadata["principals"] != "2" || ev.Metadata["user_agent"] != "curl/8" {
		t.Fatalf("unexpected metadata %v", ev.Metadata)
	}
}

func TestAuditCarriesRequestID(t *testing.T) {
	e, sink := auditEngine(t)
	ctx := WithRequestInfo(context.Background(), RequestInfo{ClientIP: "203.0.113.9", RequestID: "req-42"})
	ctx = WithUserAgent(ctx, "scanner/1")

	if got := RequestInfoFrom(ctx); got.ClientIP != "203.0.113.9" || got.RequestID != "req-42" || got.UserAgent != "scanner/1" {
		t.Fatalf("setters must keep earlier fields, got %+v", got)
	}

	_, _ = e.Authenticate(ctx, factor.Fields{"j_username": "bob"})
	ev := nextEvent(t, sink)
	if ev.EventType != "login_missing_credentials" || ev.IP != "203.0.113.9" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Metadata["request_id"] != "req-42" || ev.Metadata["user_agent"] != "scanner/1" {
		t.Fatalf("unexpected metadata %v", ev.Metadata)
	}
}

func TestAuditFailures(t *testing.T) {
	e, sink := auditEngine(t)

	_, _ = e.Authenticate(context.Background(), factor.Fields{"j_username": "bob", "j_password": "s3cr3t", "j_tokens[0]": "000000"})
	ev := nextEvent(t, sink)
	if ev.EventType != "login_rejected" || ev.Error != "invalid_credentials" || ev.Success {
		t.Fatalf("unexpected rejection event %+v", ev)
	}

	_, _ = e.Authenticate(context.Background(), factor.Fields{"j_password": "s3cr3t"})
	ev = nextEvent(t, sink)
	if ev.EventType != "login_missing_credentials" || ev.Error != "missing_credentials" {
		t.Fatalf("unexpected missing event %+v", ev)
	}

	_, _ = e.AuthenticateChain(context.Background(), "Nope", factor.Fields{"j_username": "bob", "j_password": "pw"})
	ev = nextEvent(t, sink)
	if ev.EventType != "login_system_error" || ev.Error != "unknown_chain" {
		t.Fatalf("unexpected system event %+v", ev)
	}
}

func TestAuditNeverCarriesSecrets(t *testing.T) {
	var sb strings.Builder
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	e := newTestEngine(t, &otpModule{}, func(b *Builder) {
		b.WithConfig(cfg).WithAuditSink(NewJSONWriterSink(&sb))
	})

	_, _ = e.Authenticate(context.Background(), factor.Fields{"j_username": "bob", "j_password": "s3cr3t", "j_tokens[0]": "123456"})
	_, _ = e.Authenticate(context.Background(), factor.Fields{"j_username": "bob", "j_password": "wrong-pass", "j_tokens[0]": "654321"})
	e.Close()

	out := sb.String()
	for _, secret := range []string{"s3cr3t", "123456", "wrong-pass", "654321"} {
		if strings.Contains(out, secret) {
			t.Fatalf("audit output contains %q: %s", secret, out)
		}
	}
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("expected 2 audit lines, got %q", out)
	}
}
