package httpauth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/MrEthical07/mfabridge"
	"github.com/MrEthical07/mfabridge/factor"
)

const defaultMaxFormBytes = 64 << 10

// Authenticator is the subset of *mfabridge.Engine the handler uses.
type Authenticator interface {
	Authenticate(ctx context.Context, fields factor.Fields) (*mfabridge.Outcome, error)
}

// Continuation receives a successful outcome. It owns the response.
type Continuation interface {
	Proceed(w http.ResponseWriter, r *http.Request, outcome *mfabridge.Outcome, method string) error
}

// ContinuationFunc adapts a function to [Continuation].
type ContinuationFunc func(w http.ResponseWriter, r *http.Request, outcome *mfabridge.Outcome, method string) error

func (f ContinuationFunc) Proceed(w http.ResponseWriter, r *http.Request, outcome *mfabridge.Outcome, method string) error {
	return f(w, r, outcome, method)
}

// Capabilities describes what the handler can do for a relying party.
type Capabilities struct {
	// SupportsPassive is false: the handler always needs user input.
	SupportsPassive bool
	// SupportsForceAuthentication is true: every request re-authenticates.
	SupportsForceAuthentication bool
}

// Options configures a [LoginHandler].
type Options struct {
	Login        mfabridge.LoginConfig
	Continuation Continuation
	// Failure defaults to a [RedirectFailure] built from Login.
	Failure FailureResponder
	Logger  *slog.Logger
	// MaxFormBytes bounds the request body. Zero means 64 KiB.
	MaxFormBytes int64
	// TrustProxyHeaders takes the client IP from X-Forwarded-For.
	TrustProxyHeaders bool
}

// LoginHandler runs one attempt per POST. A GET, or a POST without the
// username or primary field, is a missing-credentials failure.
type LoginHandler struct {
	engine       Authenticator
	login        mfabridge.LoginConfig
	continuation Continuation
	failure      FailureResponder
	logger       *slog.Logger
	maxFormBytes int64
	trustProxy   bool
}

// NewLoginHandler validates opts and returns a handler.
func NewLoginHandler(engine Authenticator, opts Options) (*LoginHandler, error) {
	if engine == nil {
		return nil, errors.New("httpauth: nil engine")
	}
	if opts.Continuation == nil {
		return nil, errors.New("httpauth: nil continuation")
	}
	login := opts.Login
	if login.AuthenticationMethod == "" {
		login.AuthenticationMethod = mfabridge.DefaultAuthenticationMethod
	}
	login.LoginPage = mfabridge.NormalizeLoginPage(login.LoginPage)
	if login.LoginPage == "" {
		login.LoginPage = mfabridge.DefaultLoginPage
	}
	if login.FailureParam == "" {
		login.FailureParam = mfabridge.DefaultFailureParam
	}
	if login.ErrorParam == "" {
		login.ErrorParam = mfabridge.DefaultErrorParam
	}
	if opts.Failure == nil {
		opts.Failure = &RedirectFailure{
			LoginPage:    login.LoginPage,
			FailureParam: login.FailureParam,
			ErrorParam:   login.ErrorParam,
			ActionURL:    login.ActionURL,
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.MaxFormBytes <= 0 {
		opts.MaxFormBytes = defaultMaxFormBytes
	}
	return &LoginHandler{
		engine:       engine,
		login:        login,
		continuation: opts.Continuation,
		failure:      opts.Failure,
		logger:       opts.Logger,
		maxFormBytes: opts.MaxFormBytes,
		trustProxy:   opts.TrustProxyHeaders,
	}, nil
}

// Capabilities reports the handler's fixed capabilities.
func (h *LoginHandler) Capabilities() Capabilities {
	return Capabilities{SupportsPassive: false, SupportsForceAuthentication: true}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	fields := factor.Fields{}
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxFormBytes)
		if err := r.ParseForm(); err != nil {
			h.logger.DebugContext(r.Context(), "login form rejected", "error", err)
			h.fail(w, r, mfabridge.KindMissingCredentials)
			return
		}
		fields = factor.FromValues(r.PostForm)
	}

	ctx := mfabridge.WithClientIP(r.Context(), h.clientIP(r))
	ctx = mfabridge.WithUserAgent(ctx, r.UserAgent())

	outcome, err := h.engine.Authenticate(ctx, fields)
	if err != nil {
		h.fail(w, r, mfabridge.KindOf(err))
		return
	}
	defer outcome.Wipe()

	if err := h.continuation.Proceed(w, r.WithContext(ctx), outcome, h.login.AuthenticationMethod); err != nil {
		h.logger.ErrorContext(ctx, "continuation failed",
			"attempt", outcome.AttemptID,
			"username", outcome.Username,
			"error", err,
		)
		h.fail(w, r, mfabridge.KindAuthenticationSystemError)
	}
}

func (h *LoginHandler) fail(w http.ResponseWriter, r *http.Request, kind mfabridge.ErrorKind) {
	if kind == mfabridge.KindNone {
		kind = mfabridge.KindAuthenticationSystemError
	}
	h.failure.Fail(w, r, kind)
}

func (h *LoginHandler) clientIP(r *http.Request) string {
	if h.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
