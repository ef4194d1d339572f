// Package server assembles the mfabridge HTTP service from a loaded
// configuration.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/MrEthical07/mfabridge"
	"github.com/MrEthical07/mfabridge/httpauth"
	"github.com/MrEthical07/mfabridge/internal/config"
	"github.com/MrEthical07/mfabridge/jwt"
	"github.com/MrEthical07/mfabridge/metrics/export/prometheus"
	guard "github.com/MrEthical07/mfabridge/middleware"
	"github.com/MrEthical07/mfabridge/module"
	"github.com/MrEthical07/mfabridge/modules/kerberos"
	"github.com/MrEthical07/mfabridge/modules/lockout"
	"github.com/MrEthical07/mfabridge/modules/pgpasswd"
	"github.com/MrEthical07/mfabridge/modules/static"
	"github.com/MrEthical07/mfabridge/modules/totp"
	"github.com/MrEthical07/mfabridge/password"
	"github.com/MrEthical07/mfabridge/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

// Server is a built service. Close releases the engine and database pool;
// the Redis client belongs to the caller.
type Server struct {
	Engine   *mfabridge.Engine
	Handler  http.Handler
	Sessions *session.Store
	Issuer   *jwt.Manager

	logger  *slog.Logger
	redis   redis.UniversalClient
	closers []func()
}

// Deps are the process resources Build does not create itself.
type Deps struct {
	Redis  redis.UniversalClient
	Logger *slog.Logger
}

// Build wires factories, the engine, the login handler and the router.
func Build(ctx context.Context, cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}
	if deps.Redis == nil {
		return nil, errors.New("server: nil redis client")
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{logger: log, redis: deps.Redis}

	hasher, err := password.NewArgon2(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	factories := module.NewFactories()
	factories.Register(static.Type, static.Factory(hasher))
	factories.Register(lockout.Type, lockout.Factory(deps.Redis))
	factories.Register(totp.Type, totp.Factory(deps.Redis))
	factories.Register(kerberos.Type, kerberos.Factory())
	if cfg.Postgres != nil {
		pool, err := pgpasswd.Open(ctx, *cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		factories.Register(pgpasswd.Type, pgpasswd.Factory(pool, hasher))
	}

	registry, err := factories.BuildRegistry(cfg.ChainEntries())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("module chains: %w", err)
	}

	engineCfg := cfg.EngineConfig()
	builder := mfabridge.New().
		WithConfig(engineCfg).
		WithRegistry(registry).
		WithLogger(log)
	if engineCfg.Audit.Enabled {
		builder = builder.WithAuditSink(mfabridge.NewJSONWriterSink(os.Stderr))
	}
	engine, err := builder.Build()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("engine: %w", err)
	}
	s.Engine = engine
	s.closers = append(s.closers, engine.Close)

	s.Sessions = session.NewStore(deps.Redis, cfg.Session.Prefix, cfg.Session.TTL, cfg.Session.Sliding)

	var continuation httpauth.Continuation
	switch cfg.Server.Continuation {
	case "assertion":
		issuer, err := newIssuer(cfg.JWT)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("jwt: %w", err)
		}
		s.Issuer = issuer
		continuation = &httpauth.AssertionContinuation{Issuer: issuer, ReturnURL: cfg.Server.ReturnURL}
	default:
		continuation = &httpauth.SessionContinuation{
			Store:      s.Sessions,
			CookieName: cfg.Session.CookieName,
			Secure:     cfg.Session.Secure,
			Redirect:   cfg.Server.ReturnURL,
		}
	}

	login, err := httpauth.NewLoginHandler(engine, httpauth.Options{
		Login:             engineCfg.Login,
		Continuation:      continuation,
		Logger:            log,
		MaxFormBytes:      cfg.Server.MaxFormBytes,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Handler = s.router(cfg, engineCfg.Login, login)
	log.Info("server built",
		"chains", engine.Chains(),
		"default_chain", engineCfg.Login.ChainName,
		"continuation", cfg.Server.Continuation,
		"login_path", cfg.Server.LoginPath,
	)
	return s, nil
}

func newIssuer(cfg config.JWTConfig) (*jwt.Manager, error) {
	jc := jwt.Config{
		TTL:           cfg.TTL,
		SigningMethod: jwt.SigningMethod(cfg.SigningMethod),
		Issuer:        cfg.Issuer,
		Audience:      cfg.Audience,
		Leeway:        cfg.Leeway,
		KeyID:         cfg.KeyID,
	}
	switch jc.SigningMethod {
	case jwt.MethodEd25519:
		key, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		jc.PrivateKey = key
	default:
		jc.PrivateKey = []byte(cfg.Secret)
	}
	return jwt.NewManager(jc)
}

func (s *Server) router(cfg *config.Config, login mfabridge.LoginConfig, loginHandler *httpauth.LoginHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := mfabridge.WithRequestID(req.Context(), middleware.GetReqID(req.Context()))
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})

	r.Get("/healthz", s.health)

	r.Method(http.MethodGet, cfg.Server.LoginPath, loginHandler)
	r.Method(http.MethodPost, cfg.Server.LoginPath, loginHandler)

	page := mfabridge.NormalizeLoginPage(login.LoginPage)
	if page != cfg.Server.LoginPath {
		r.Get(page, newLoginPage(login, cfg.Server.LoginPath).ServeHTTP)
	}

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, prometheus.NewPrometheusExporter(s.Engine).Handler())
	}

	r.Group(func(r chi.Router) {
		if s.Issuer != nil {
			r.Use(guard.RequireAssertion(s.Issuer))
		} else {
			r.Use(guard.RequireSession(s.Sessions, cfg.Session.CookieName))
		}
		r.Get("/whoami", whoami)
		r.Post("/logout", s.logout(cfg.Session.CookieName))
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status, code := "ok", http.StatusOK
	if err := s.redis.Ping(ctx).Err(); err != nil {
		s.logger.WarnContext(ctx, "health check: redis unavailable", "error", err)
		status, code = "redis unavailable", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "chains": s.Engine.Chains()})
}

type identity struct {
	Username   string    `json:"username"`
	Chain      string    `json:"chain"`
	Method     string    `json:"method"`
	Principals []string  `json:"principals"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func whoami(w http.ResponseWriter, r *http.Request) {
	if sess, ok := guard.SessionFromContext(r.Context()); ok {
		writeJSON(w, http.StatusOK, identity{
			Username:   sess.Username,
			Chain:      sess.Chain,
			Method:     sess.Method,
			Principals: sess.Principals,
			ExpiresAt:  time.Unix(sess.ExpiresAt, 0).UTC(),
		})
		return
	}
	if claims, ok := guard.ClaimsFromContext(r.Context()); ok {
		id := identity{
			Username:   claims.Subject,
			Chain:      claims.Chain,
			Method:     claims.Method,
			Principals: claims.Principals,
		}
		if claims.ExpiresAt != nil {
			id.ExpiresAt = claims.ExpiresAt.Time
		}
		writeJSON(w, http.StatusOK, id)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func (s *Server) logout(cookieName string) http.HandlerFunc {
	if cookieName == "" {
		cookieName = guard.DefaultCookieName
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if sess, ok := guard.SessionFromContext(r.Context()); ok {
			if err := s.Sessions.Delete(r.Context(), sess); err != nil {
				s.logger.ErrorContext(r.Context(), "logout failed", "error", err)
				http.Error(w, "logout failed", http.StatusServiceUnavailable)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Close releases resources in reverse order of acquisition.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
