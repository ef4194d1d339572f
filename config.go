package mfabridge

import (
	"errors"
	"strings"

	"github.com/MrEthical07/mfabridge/factor"
)

const (
	// DefaultChainName is the module chain used when none is configured.
	DefaultChainName = "ShibUserPassAuth"
	// DefaultAuthenticationMethod is handed to the continuation on success.
	DefaultAuthenticationMethod = "urn:oasis:names:tc:SAML:2.0:ac:classes:Token"
	// DefaultLoginPage is where failed or incomplete attempts are sent.
	DefaultLoginPage = "/login.jsp"
	// DefaultFailureParam is the query parameter set on a failed attempt.
	DefaultFailureParam = "loginFailed"
	// DefaultErrorParam carries the [ErrorKind] of a failed attempt.
	DefaultErrorParam = "loginError"
)

// Config is the complete engine configuration. Build a default with
// [DefaultConfig] and override fields as needed.
type Config struct {
	Login    LoginConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig holds the login handler settings.
type LoginConfig struct {
	UsernameField        string
	PrimaryField         string
	TokenField           string
	ChainName            string
	AuthenticationMethod string
	// LoginPage is normalized to start with "/".
	LoginPage    string
	FailureParam string
	ErrorParam   string
	// ActionURL overrides the form action exposed to the login page. Empty
	// means the handler's own request path.
	ActionURL string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds limits applied before any module runs.
type SecurityConfig struct {
	// MaxSupplementaryFactors caps the supplementary factor scan. Zero means
	// no cap. A request carrying more factors than the cap is rejected.
	MaxSupplementaryFactors int
	// ProductionMode requires a factor cap.
	ProductionMode bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration matching the classic form login
// field names and defaults.
func DefaultConfig() Config {
	return Config{
		Login: LoginConfig{
			UsernameField:        factor.DefaultUsernameKey,
			PrimaryField:         factor.DefaultPrimaryKey,
			TokenField:           factor.DefaultTokenKey,
			ChainName:            DefaultChainName,
			AuthenticationMethod: DefaultAuthenticationMethod,
			LoginPage:            DefaultLoginPage,
			FailureParam:         DefaultFailureParam,
			ErrorParam:           DefaultErrorParam,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			MaxSupplementaryFactors: 0,
			ProductionMode:          false,
		},
	}
}

// FieldNames returns the extraction field layout for cfg.
func (c Config) FieldNames() factor.FieldNames {
	return factor.FieldNames{
		Username:         c.Login.UsernameField,
		Primary:          c.Login.PrimaryField,
		Token:            c.Login.TokenField,
		MaxSupplementary: c.Security.MaxSupplementaryFactors,
	}
}

func normalizeConfig(cfg Config) Config {
	out := cfg
	out.Login.LoginPage = NormalizeLoginPage(cfg.Login.LoginPage)
	return out
}

// NormalizeLoginPage trims page and ensures a leading "/".
func NormalizeLoginPage(page string) string {
	page = strings.TrimSpace(page)
	if page == "" {
		return ""
	}
	if !strings.HasPrefix(page, "/") {
		return "/" + page
	}
	return page
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Login
	if strings.TrimSpace(c.Login.UsernameField) == "" {
		return errors.New("Login UsernameField must not be empty")
	}
	if strings.TrimSpace(c.Login.PrimaryField) == "" {
		return errors.New("Login PrimaryField must not be empty")
	}
	if strings.TrimSpace(c.Login.TokenField) == "" {
		return errors.New("Login TokenField must not be empty")
	}
	if c.Login.UsernameField == c.Login.PrimaryField ||
		c.Login.UsernameField == c.Login.TokenField ||
		c.Login.PrimaryField == c.Login.TokenField {
		return errors.New("Login field names must be distinct")
	}
	if strings.ContainsAny(c.Login.TokenField, "[]") {
		return errors.New("Login TokenField must not contain brackets")
	}
	if strings.TrimSpace(c.Login.ChainName) == "" {
		return errors.New("Login ChainName must not be empty")
	}
	if strings.TrimSpace(c.Login.AuthenticationMethod) == "" {
		return errors.New("Login AuthenticationMethod must not be empty")
	}
	if strings.TrimSpace(c.Login.LoginPage) == "" {
		return errors.New("Login LoginPage must not be empty")
	}
	if strings.TrimSpace(c.Login.FailureParam) == "" {
		return errors.New("Login FailureParam must not be empty")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Security
	if c.Security.MaxSupplementaryFactors < 0 {
		return errors.New("Security MaxSupplementaryFactors must be >= 0")
	}
	if c.Security.MaxSupplementaryFactors > 64 {
		return errors.New("Security MaxSupplementaryFactors must be <= 64")
	}
	if c.Security.ProductionMode && c.Security.MaxSupplementaryFactors == 0 {
		return errors.New("Security ProductionMode requires MaxSupplementaryFactors > 0")
	}

	return nil
}
