package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the assertion signature algorithm.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

const (
	minHMACKeyBytes     = 32
	maxLeeway           = 2 * time.Minute
	defaultMaxFutureIAT = 10 * time.Minute
)

var (
	ErrMissingSubject = errors.New("assertion subject is required")
	ErrNoSigningKey   = errors.New("manager has no signing key")
	ErrInvalidConfig  = errors.New("invalid assertion config")
	ErrInvalidKey     = errors.New("invalid assertion key")
	ErrMissingKeyID   = errors.New("assertion has no kid header")
	ErrUnknownKeyID   = errors.New("assertion kid is not trusted")
	ErrFutureIssuedAt = errors.New("assertion iat too far in the future")
)

// Config controls assertion issuance and verification. PrivateKey is the
// shared secret for HS256 and a raw or PEM private key for Ed25519.
// VerifyKeys, when set, is the full trusted keyring indexed by kid; tokens
// must then carry a kid.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	RequireIAT    bool
	MaxFutureIAT  time.Duration
	KeyID         string
	VerifyKeys    map[string][]byte
}

// AssertionClaims is the signed handoff of a successful login. The subject is
// the username and the token id is the attempt id.
type AssertionClaims struct {
	Principals []string `json:"principals,omitempty"`
	// Method is the authentication context class, e.g. a SAML AC class URI.
	Method  string `json:"acr,omitempty"`
	Chain   string `json:"chain,omitempty"`
	Factors int    `json:"factors,omitempty"`
	jwt.RegisteredClaims
}

// HasPrincipal reports whether the assertion carries the rendered principal,
// e.g. "role:admin".
func (c *AssertionClaims) HasPrincipal(p string) bool {
	return c != nil && slices.Contains(c.Principals, p)
}

// Assertion is the input to [Manager.CreateAssertion].
type Assertion struct {
	Subject    string
	AttemptID  string
	Principals []string
	Method     string
	Chain      string
	Factors    int
}

// Manager signs and verifies identity assertions. Keys are decoded once in
// NewManager; the Manager is immutable afterwards and safe for concurrent use.
type Manager struct {
	config  Config
	method  jwt.SigningMethod
	signKey any
	// verifyKey is used when keyring is empty.
	verifyKey any
	keyring   map[string]any
	parser    *jwt.Parser
	now       func() time.Time
}

// NewManager validates cfg and decodes its keys. An Ed25519 manager without a
// private key can only verify.
func NewManager(cfg Config) (*Manager, error) {
	if err := checkTiming(&cfg); err != nil {
		return nil, err
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)

	m := &Manager{config: cfg, now: time.Now}
	var err error
	switch cfg.SigningMethod {
	case MethodHS256:
		err = m.loadHMAC()
	case MethodEd25519:
		err = m.loadEd25519()
	default:
		err = fmt.Errorf("%w: unsupported signing method %q", ErrInvalidConfig, cfg.SigningMethod)
	}
	if err != nil {
		return nil, err
	}
	if cfg.KeyID != "" && m.keyring != nil {
		if _, ok := m.keyring[cfg.KeyID]; !ok {
			return nil, fmt.Errorf("%w: KeyID %q is not in VerifyKeys", ErrInvalidConfig, cfg.KeyID)
		}
	}
	m.parser = jwt.NewParser(m.parserOptions()...)
	return m, nil
}

func checkTiming(cfg *Config) error {
	if cfg.TTL <= 0 {
		return fmt.Errorf("%w: TTL must be > 0", ErrInvalidConfig)
	}
	if cfg.Leeway < 0 || cfg.Leeway > maxLeeway {
		return fmt.Errorf("%w: leeway must be within 0..%s", ErrInvalidConfig, maxLeeway)
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = defaultMaxFutureIAT
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return fmt.Errorf("%w: MaxFutureIAT must be within 0..24h", ErrInvalidConfig)
	}
	return nil
}

func (m *Manager) loadHMAC() error {
	if len(m.config.PrivateKey) < minHMACKeyBytes {
		return fmt.Errorf("%w: hs256 requires a key of at least %d bytes", ErrInvalidKey, minHMACKeyBytes)
	}
	m.method = jwt.SigningMethodHS256
	m.signKey = m.config.PrivateKey
	m.verifyKey = m.config.PrivateKey
	if len(m.config.VerifyKeys) > 0 {
		m.keyring = make(map[string]any, len(m.config.VerifyKeys))
		for kid, key := range m.config.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return fmt.Errorf("%w: verify key map contains empty kid", ErrInvalidConfig)
			}
			if len(key) < minHMACKeyBytes {
				return fmt.Errorf("%w: hs256 verify key %q is too short", ErrInvalidKey, kid)
			}
			m.keyring[kid] = key
		}
	}
	return nil
}

func (m *Manager) loadEd25519() error {
	m.method = jwt.SigningMethodEdDSA
	var pub ed25519.PublicKey
	if len(m.config.PrivateKey) > 0 {
		priv, err := parseEdPrivateKey(m.config.PrivateKey)
		if err != nil {
			return err
		}
		m.signKey = priv
		pub = priv.Public().(ed25519.PublicKey)
	}
	if len(m.config.PublicKey) > 0 {
		p, err := parseEdPublicKey(m.config.PublicKey)
		if err != nil {
			return err
		}
		pub = p
	}
	if pub != nil {
		m.verifyKey = pub
	}

	if len(m.config.VerifyKeys) > 0 {
		m.keyring = make(map[string]any, len(m.config.VerifyKeys))
		for kid, key := range m.config.VerifyKeys {
			if strings.TrimSpace(kid) == "" {
				return fmt.Errorf("%w: verify key map contains empty kid", ErrInvalidConfig)
			}
			p, err := parseEdPublicKey(key)
			if err != nil {
				return fmt.Errorf("verify key %q: %w", kid, err)
			}
			m.keyring[kid] = p
		}
	}
	if m.verifyKey == nil && m.keyring == nil {
		return fmt.Errorf("%w: ed25519 requires a private key, public key or verify key set", ErrInvalidKey)
	}
	return nil
}

func (m *Manager) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	}
	if m.config.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.RequireIAT {
		opts = append(opts, jwt.WithIssuedAt())
	}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(m.config.Audience))
	}
	return opts
}

// TTL returns the configured assertion lifetime.
func (m *Manager) TTL() time.Duration { return m.config.TTL }

// CreateAssertion signs a.
func (m *Manager) CreateAssertion(a Assertion) (string, error) {
	if a.Subject == "" {
		return "", ErrMissingSubject
	}
	if m.signKey == nil {
		return "", ErrNoSigningKey
	}

	now := m.now()
	claims := AssertionClaims{
		Principals: a.Principals,
		Method:     a.Method,
		Chain:      a.Chain,
		Factors:    a.Factors,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.Subject,
			ID:        a.AttemptID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}

	token := jwt.NewWithClaims(m.method, claims)
	if m.config.KeyID != "" {
		token.Header["kid"] = m.config.KeyID
	}
	return token.SignedString(m.signKey)
}

// ParseAssertion verifies tokenStr and returns its claims.
func (m *Manager) ParseAssertion(tokenStr string) (*AssertionClaims, error) {
	claims := &AssertionClaims{}
	token, err := m.parser.ParseWithClaims(tokenStr, claims, m.keyFor)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if claims.IssuedAt != nil && claims.IssuedAt.After(m.now().Add(m.config.MaxFutureIAT)) {
		return nil, ErrFutureIssuedAt
	}
	return claims, nil
}

// keyFor selects the verification key. With a keyring the kid header is
// mandatory; with a single KeyID the header must match it.
func (m *Manager) keyFor(t *jwt.Token) (any, error) {
	if t.Method.Alg() != m.method.Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}
	kid, _ := t.Header["kid"].(string)

	if m.keyring != nil {
		if kid == "" {
			return nil, ErrMissingKeyID
		}
		key, ok := m.keyring[kid]
		if !ok {
			return nil, ErrUnknownKeyID
		}
		return key, nil
	}
	if m.config.KeyID != "" {
		if kid == "" {
			return nil, ErrMissingKeyID
		}
		if kid != m.config.KeyID {
			return nil, ErrUnknownKeyID
		}
	}
	if m.verifyKey == nil {
		return nil, ErrInvalidKey
	}
	return m.verifyKey, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: ed25519 private key: %v", ErrInvalidKey, err)
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an ed25519 private key", ErrInvalidKey)
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: ed25519 public key: %v", ErrInvalidKey, err)
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an ed25519 public key", ErrInvalidKey)
	}
	return edKey, nil
}
