package config

import (
	"time"

	"github.com/MrEthical07/mfabridge"
	"github.com/MrEthical07/mfabridge/internal/logger"
	"github.com/MrEthical07/mfabridge/middleware"
	"github.com/MrEthical07/mfabridge/module"
	"github.com/MrEthical07/mfabridge/modules/pgpasswd"
	"github.com/MrEthical07/mfabridge/password"
)

// ApplyDefaults fills every zero value with its default.
func ApplyDefaults(cfg *Config) {
	applyEngineDefaults(&cfg.Engine)
	applyPasswordDefaults(&cfg.Password)
	applyRedisDefaults(&cfg.Redis)
	applyJWTDefaults(&cfg.JWT)
	applySessionDefaults(&cfg.Session)
	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if len(cfg.Chains) == 0 {
		cfg.Chains = defaultChains()
	}
	if cfg.Postgres != nil {
		applyPostgresDefaults(cfg.Postgres)
	}
}

func applyEngineDefaults(e *EngineConfig) {
	def := mfabridge.DefaultConfig()
	setString(&e.UsernameField, def.Login.UsernameField)
	setString(&e.PrimaryField, def.Login.PrimaryField)
	setString(&e.TokenField, def.Login.TokenField)
	setString(&e.ChainName, def.Login.ChainName)
	setString(&e.AuthenticationMethod, def.Login.AuthenticationMethod)
	setString(&e.LoginPage, def.Login.LoginPage)
	setString(&e.FailureParam, def.Login.FailureParam)
	setString(&e.ErrorParam, def.Login.ErrorParam)
	if e.AuditBufferSize == 0 {
		e.AuditBufferSize = def.Audit.BufferSize
	}
}

func applyPasswordDefaults(p *password.Config) {
	def := password.DefaultConfig()
	if p.Memory == 0 {
		p.Memory = def.Memory
	}
	if p.Time == 0 {
		p.Time = def.Time
	}
	if p.Parallelism == 0 {
		p.Parallelism = def.Parallelism
	}
	if p.SaltLength == 0 {
		p.SaltLength = def.SaltLength
	}
	if p.KeyLength == 0 {
		p.KeyLength = def.KeyLength
	}
	if p.MinSecretBytes == 0 {
		p.MinSecretBytes = def.MinSecretBytes
	}
	if p.MaxSecretBytes == 0 {
		p.MaxSecretBytes = def.MaxSecretBytes
	}
}

func applyRedisDefaults(r *RedisConfig) {
	setString(&r.Addr, "localhost:6379")
}

func applyPostgresDefaults(p *pgpasswd.PoolConfig) {
	if p.MaxConns == 0 {
		p.MaxConns = 10
	}
	if p.MaxConnLifetime == 0 {
		p.MaxConnLifetime = 30 * time.Minute
	}
	if p.MaxConnIdleTime == 0 {
		p.MaxConnIdleTime = 10 * time.Minute
	}
}

func applyJWTDefaults(j *JWTConfig) {
	setString(&j.SigningMethod, "hs256")
	setString(&j.Issuer, "mfabridge")
	if j.TTL == 0 {
		j.TTL = 2 * time.Minute
	}
}

func applySessionDefaults(s *SessionConfig) {
	setString(&s.Prefix, "mfabridge:sess:")
	setString(&s.CookieName, middleware.DefaultCookieName)
	if s.TTL == 0 {
		s.TTL = 8 * time.Hour
	}
}

func applyServerDefaults(s *ServerConfig) {
	setString(&s.Addr, ":8080")
	setString(&s.LoginPath, "/Authn/UserPassword")
	setString(&s.Continuation, "session")
	if s.MaxFormBytes == 0 {
		s.MaxFormBytes = 64 << 10
	}
	if s.ReadHeaderTimeout == 0 {
		s.ReadHeaderTimeout = 10 * time.Second
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(l *logger.Config) {
	setString(&l.Level, "INFO")
	setString(&l.Format, "text")
	setString(&l.Output, "stdout")
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func defaultChains() []ChainConfig {
	return []ChainConfig{{
		Name: mfabridge.DefaultChainName,
		Modules: []module.EntryConfig{
			{Type: "static", Flag: "required"},
		},
	}}
}

// GetDefaultConfig returns the configuration used when no file is given.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
