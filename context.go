package mfabridge

import "context"

// RequestInfo is the transport metadata of a login request. The Engine copies
// it into audit events; it never influences the authentication decision.
type RequestInfo struct {
	ClientIP  string
	UserAgent string
	// RequestID correlates the attempt with the HTTP access log.
	RequestID string
}

type requestInfoKey struct{}

// WithRequestInfo attaches info to ctx, replacing any earlier value.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the metadata attached to ctx, or the zero value.
func RequestInfoFrom(ctx context.Context) RequestInfo {
	if ctx == nil {
		return RequestInfo{}
	}
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// WithClientIP sets the caller's IP address, keeping other request metadata.
func WithClientIP(ctx context.Context, ip string) context.Context {
	info := RequestInfoFrom(ctx)
	info.ClientIP = ip
	return WithRequestInfo(ctx, info)
}

// WithUserAgent sets the HTTP User-Agent, keeping other request metadata.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	info := RequestInfoFrom(ctx)
	info.UserAgent = userAgent
	return WithRequestInfo(ctx, info)
}

// WithRequestID sets the request correlation id, keeping other request
// metadata.
func WithRequestID(ctx context.Context, id string) context.Context {
	info := RequestInfoFrom(ctx)
	info.RequestID = id
	return WithRequestInfo(ctx, info)
}
