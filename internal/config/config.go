// Package config loads the mfabridge server configuration.
//
// Values come from, highest precedence first: MFABRIDGE_* environment
// variables, the YAML file, and the built-in defaults. Module chains are part
// of the file and are returned to the caller; nothing here touches process
// globals.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MrEthical07/mfabridge"
	"github.com/MrEthical07/mfabridge/internal/logger"
	"github.com/MrEthical07/mfabridge/module"
	"github.com/MrEthical07/mfabridge/modules/pgpasswd"
	"github.com/MrEthical07/mfabridge/password"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. MFABRIDGE_SERVER_ADDR.
const EnvPrefix = "MFABRIDGE"

// Config is the server configuration file.
type Config struct {
	Engine   EngineConfig          `mapstructure:"engine" yaml:"engine"`
	Chains   []ChainConfig         `mapstructure:"chains" yaml:"chains" validate:"required,min=1,dive"`
	Password password.Config       `mapstructure:"password" yaml:"password"`
	Redis    RedisConfig           `mapstructure:"redis" yaml:"redis"`
	Postgres *pgpasswd.PoolConfig  `mapstructure:"postgres" yaml:"postgres,omitempty" validate:"omitempty"`
	JWT      JWTConfig             `mapstructure:"jwt" yaml:"jwt"`
	Session  SessionConfig         `mapstructure:"session" yaml:"session"`
	Server   ServerConfig          `mapstructure:"server" yaml:"server"`
	Logging  logger.Config         `mapstructure:"logging" yaml:"logging"`
	Metrics  MetricsEndpointConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ChainConfig is one named module chain. Chains are a list rather than a map
// because viper lower-cases map keys and chain names are case-sensitive.
type ChainConfig struct {
	Name    string               `mapstructure:"name" yaml:"name" validate:"required"`
	Modules []module.EntryConfig `mapstructure:"modules" yaml:"modules" validate:"required,min=1,dive"`
}

// EngineConfig mirrors [mfabridge.Config] with file tags.
type EngineConfig struct {
	UsernameField           string `mapstructure:"username_field" yaml:"username_field"`
	PrimaryField            string `mapstructure:"primary_field" yaml:"primary_field"`
	TokenField              string `mapstructure:"token_field" yaml:"token_field"`
	ChainName               string `mapstructure:"chain_name" yaml:"chain_name"`
	AuthenticationMethod    string `mapstructure:"authentication_method" yaml:"authentication_method"`
	LoginPage               string `mapstructure:"login_page" yaml:"login_page"`
	FailureParam            string `mapstructure:"failure_param" yaml:"failure_param"`
	ErrorParam              string `mapstructure:"error_param" yaml:"error_param"`
	ActionURL               string `mapstructure:"action_url" yaml:"action_url,omitempty"`
	MaxSupplementaryFactors int    `mapstructure:"max_supplementary_factors" yaml:"max_supplementary_factors" validate:"gte=0,lte=64"`
	ProductionMode          bool   `mapstructure:"production_mode" yaml:"production_mode"`
	AuditEnabled            bool   `mapstructure:"audit_enabled" yaml:"audit_enabled"`
	AuditBufferSize         int    `mapstructure:"audit_buffer_size" yaml:"audit_buffer_size" validate:"gte=0"`
	MetricsEnabled          bool   `mapstructure:"metrics_enabled" yaml:"metrics_enabled"`
	LatencyHistograms       bool   `mapstructure:"latency_histograms" yaml:"latency_histograms"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db" validate:"gte=0"`
}

// JWTConfig configures assertions for the assertion continuation. Secret is
// the HS256 key; PrivateKeyFile is a PEM Ed25519 key.
type JWTConfig struct {
	SigningMethod  string        `mapstructure:"signing_method" yaml:"signing_method" validate:"omitempty,oneof=hs256 ed25519"`
	Secret         string        `mapstructure:"secret" yaml:"secret,omitempty"`
	PrivateKeyFile string        `mapstructure:"private_key_file" yaml:"private_key_file,omitempty"`
	KeyID          string        `mapstructure:"key_id" yaml:"key_id,omitempty"`
	Issuer         string        `mapstructure:"issuer" yaml:"issuer"`
	Audience       string        `mapstructure:"audience" yaml:"audience,omitempty"`
	TTL            time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"`
	Leeway         time.Duration `mapstructure:"leeway" yaml:"leeway" validate:"gte=0"`
}

type SessionConfig struct {
	Prefix     string        `mapstructure:"prefix" yaml:"prefix"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"`
	Sliding    bool          `mapstructure:"sliding" yaml:"sliding"`
	CookieName string        `mapstructure:"cookie_name" yaml:"cookie_name"`
	Secure     bool          `mapstructure:"secure" yaml:"secure"`
}

// ServerConfig configures the HTTP listener and the success handoff.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" validate:"required"`
	// LoginPath is where the login handler is mounted.
	LoginPath string `mapstructure:"login_path" yaml:"login_path" validate:"required,startswith=/"`
	// Continuation is "session" or "assertion".
	Continuation      string        `mapstructure:"continuation" yaml:"continuation" validate:"required,oneof=session assertion"`
	ReturnURL         string        `mapstructure:"return_url" yaml:"return_url,omitempty"`
	TrustProxyHeaders bool          `mapstructure:"trust_proxy_headers" yaml:"trust_proxy_headers"`
	MaxFormBytes      int64         `mapstructure:"max_form_bytes" yaml:"max_form_bytes" validate:"gte=0"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

type MetricsEndpointConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" validate:"omitempty,startswith=/"`
}

// EngineConfig converts the file section into an engine configuration.
func (c *Config) EngineConfig() mfabridge.Config {
	out := mfabridge.DefaultConfig()
	e := c.Engine
	out.Login.UsernameField = e.UsernameField
	out.Login.PrimaryField = e.PrimaryField
	out.Login.TokenField = e.TokenField
	out.Login.ChainName = e.ChainName
	out.Login.AuthenticationMethod = e.AuthenticationMethod
	out.Login.LoginPage = e.LoginPage
	out.Login.FailureParam = e.FailureParam
	out.Login.ErrorParam = e.ErrorParam
	out.Login.ActionURL = e.ActionURL
	out.Security.MaxSupplementaryFactors = e.MaxSupplementaryFactors
	out.Security.ProductionMode = e.ProductionMode
	out.Audit.Enabled = e.AuditEnabled
	if e.AuditBufferSize > 0 {
		out.Audit.BufferSize = e.AuditBufferSize
	}
	out.Metrics.Enabled = e.MetricsEnabled || c.Metrics.Enabled
	out.Metrics.EnableLatencyHistograms = e.LatencyHistograms && out.Metrics.Enabled
	return out
}

// ChainEntries returns the chain definitions keyed by name.
func (c *Config) ChainEntries() map[string][]module.EntryConfig {
	out := make(map[string][]module.EntryConfig, len(c.Chains))
	for _, ch := range c.Chains {
		out[ch.Name] = ch.Modules
	}
	return out
}

// Load reads path (empty means defaults only), applies defaults and
// validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("configuration file not found: %s\n\n"+
					"Create one with:\n  mfabridge init --config %s", path, path)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// envKeys are scalar settings that can be set purely from the environment.
// Viper only consults the environment for keys it already knows about.
var envKeys = []string{
	"engine.chain_name",
	"engine.login_page",
	"engine.production_mode",
	"redis.addr",
	"redis.password",
	"redis.db",
	"jwt.secret",
	"jwt.private_key_file",
	"jwt.issuer",
	"session.secure",
	"server.addr",
	"server.continuation",
	"server.return_url",
	"server.trust_proxy_headers",
	"logging.level",
	"logging.format",
	"logging.output",
	"metrics.enabled",
}

func bindEnvKeys(v *viper.Viper) {
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags, then the cross-field rules tags cannot
// express, then the engine's own validation.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	seen := make(map[string]bool, len(cfg.Chains))
	for _, ch := range cfg.Chains {
		if seen[ch.Name] {
			return fmt.Errorf("duplicate chain %q", ch.Name)
		}
		seen[ch.Name] = true
		for i, e := range ch.Modules {
			if _, err := module.ParseFlag(e.Flag); e.Flag != "" && err != nil {
				return fmt.Errorf("chain %q module %d: %w", ch.Name, i, err)
			}
		}
	}
	if !seen[cfg.Engine.ChainName] {
		return fmt.Errorf("engine.chain_name %q is not defined under chains", cfg.Engine.ChainName)
	}

	if cfg.Server.Continuation == "assertion" {
		switch cfg.JWT.SigningMethod {
		case "hs256":
			if len(cfg.JWT.Secret) < 32 {
				return errors.New("jwt.secret must be at least 32 bytes for hs256")
			}
		case "ed25519":
			if cfg.JWT.PrivateKeyFile == "" {
				return errors.New("jwt.private_key_file is required for ed25519")
			}
		}
		if cfg.Server.ReturnURL == "" {
			return errors.New("server.return_url is required for the assertion continuation")
		}
	}

	engineCfg := cfg.EngineConfig()
	if err := engineCfg.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// SaveConfig writes cfg as YAML with owner-only permissions since the file
// may carry password hashes and signing secrets.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
