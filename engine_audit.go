package mfabridge

import (
	"context"
	"errors"

	"github.com/MrEthical07/mfabridge/callback"
	"github.com/MrEthical07/mfabridge/internal/flows"
	"github.com/MrEthical07/mfabridge/module"
)

const (
	auditEventLoginSuccess            = "login_success"
	auditEventLoginRejected           = "login_rejected"
	auditEventLoginSystemError        = "login_system_error"
	auditEventLoginMissingCredentials = "login_missing_credentials"
)

// AuditErrorCode is the coarse failure reason recorded in audit events. It
// never contains cause text.
type AuditErrorCode string

const (
	auditErrMissingCredentials  AuditErrorCode = "missing_credentials"
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrAccountLocked       AuditErrorCode = "account_locked"
	auditErrAccountExpired      AuditErrorCode = "account_expired"
	auditErrCredentialExpired   AuditErrorCode = "credential_expired"
	auditErrRejected            AuditErrorCode = "rejected"
	auditErrUnsupportedCallback AuditErrorCode = "unsupported_callback"
	auditErrUnknownChain        AuditErrorCode = "unknown_chain"
	auditErrModulePanic         AuditErrorCode = "module_panic"
	auditErrCanceled            AuditErrorCode = "canceled"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	attemptID string,
	username string,
	chain string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}
	info := RequestInfoFrom(ctx)
	if info.UserAgent != "" || info.RequestID != "" {
		if metadata == nil {
			metadata = make(map[string]string, 2)
		}
		if info.UserAgent != "" {
			metadata["user_agent"] = info.UserAgent
		}
		if info.RequestID != "" {
			metadata["request_id"] = info.RequestID
		}
	}

	event := AuditEvent{
		EventType: eventType,
		AttemptID: attemptID,
		Username:  username,
		Chain:     chain,
		IP:        info.ClientIP,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	cause := causeOf(err)
	var panicErr *flows.PanicError

	switch KindOf(err) {
	case KindMissingCredentials:
		return auditErrMissingCredentials
	case KindAuthenticationRejected:
		switch {
		case errors.Is(cause, module.ErrAccountLocked):
			return auditErrAccountLocked
		case errors.Is(cause, module.ErrAccountExpired):
			return auditErrAccountExpired
		case errors.Is(cause, module.ErrCredentialExpired):
			return auditErrCredentialExpired
		case errors.Is(cause, module.ErrInvalidCredentials):
			return auditErrInvalidCredentials
		default:
			return auditErrRejected
		}
	}

	switch {
	case errors.Is(cause, callback.ErrUnsupportedCallback):
		return auditErrUnsupportedCallback
	case errors.Is(cause, module.ErrUnknownChain):
		return auditErrUnknownChain
	case errors.As(cause, &panicErr):
		return auditErrModulePanic
	case errors.Is(cause, context.Canceled), errors.Is(cause, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
