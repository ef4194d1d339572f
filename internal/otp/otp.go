// Package otp implements RFC 4226 / RFC 6238 one-time codes for the bundled
// TOTP module.
package otp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const secretBytes = 20

var (
	ErrEmptySecret          = errors.New("otp: empty secret")
	ErrUnsupportedAlgorithm = errors.New("otp: unsupported algorithm")
	ErrInvalidConfig        = errors.New("otp: invalid config")
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// Config controls code generation and the accepted clock window.
type Config struct {
	Issuer    string `mapstructure:"issuer" yaml:"issuer"`
	Digits    int    `mapstructure:"digits" yaml:"digits"`
	Period    int    `mapstructure:"period" yaml:"period"`
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`
	Skew      int    `mapstructure:"skew" yaml:"skew"`
}

// DefaultConfig matches common authenticator apps.
func DefaultConfig() Config {
	return Config{
		Issuer:    "mfabridge",
		Digits:    6,
		Period:    30,
		Algorithm: "SHA1",
		Skew:      1,
	}
}

// Verifier checks codes against a shared secret.
type Verifier struct {
	config Config
}

// New validates cfg. Zero Digits, Period and Algorithm take the defaults.
func New(cfg Config) (*Verifier, error) {
	def := DefaultConfig()
	if cfg.Digits == 0 {
		cfg.Digits = def.Digits
	}
	if cfg.Period == 0 {
		cfg.Period = def.Period
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = def.Algorithm
	}
	if cfg.Digits < 6 || cfg.Digits > 8 {
		return nil, fmt.Errorf("%w: digits must be 6..8", ErrInvalidConfig)
	}
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("%w: period must be > 0", ErrInvalidConfig)
	}
	if cfg.Skew < 0 || cfg.Skew > 10 {
		return nil, fmt.Errorf("%w: skew must be 0..10", ErrInvalidConfig)
	}
	if _, err := hmacFunc(cfg.Algorithm); err != nil {
		return nil, err
	}
	return &Verifier{config: cfg}, nil
}

func (v *Verifier) Config() Config { return v.config }

// GenerateSecret returns a random secret and its unpadded base32 form.
func (v *Verifier) GenerateSecret() ([]byte, string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", err
	}
	return raw, b32.EncodeToString(raw), nil
}

// DecodeSecret accepts base32 with or without padding, any case, spaces ignored.
func DecodeSecret(s string) ([]byte, error) {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	s = strings.TrimRight(s, "=")
	if s == "" {
		return nil, ErrEmptySecret
	}
	return b32.DecodeString(s)
}

// ProvisionURI builds an otpauth:// URI for enrollment.
func (v *Verifier) ProvisionURI(secretBase32, account string) string {
	issuer := v.config.Issuer
	label := url.PathEscape(issuer + ":" + account)

	q := url.Values{}
	q.Set("secret", secretBase32)
	q.Set("issuer", issuer)
	q.Set("period", strconv.Itoa(v.config.Period))
	q.Set("digits", strconv.Itoa(v.config.Digits))
	q.Set("algorithm", strings.ToUpper(v.config.Algorithm))

	return "otpauth://totp/" + label + "?" + q.Encode()
}

// Verify reports whether code is valid at now within the skew window and
// returns the matching time step. A malformed code is a mismatch, not an error.
func (v *Verifier) Verify(secret, code []byte, now time.Time) (bool, int64, error) {
	if len(secret) == 0 {
		return false, 0, ErrEmptySecret
	}
	trimmed := trimSpace(code)
	if len(trimmed) != v.config.Digits || !isNumeric(trimmed) {
		return false, 0, nil
	}

	base := now.Unix() / int64(v.config.Period)
	for step := -v.config.Skew; step <= v.config.Skew; step++ {
		counter := base + int64(step)
		if counter < 0 {
			continue
		}
		generated, err := Code(secret, counter, v.config.Digits, v.config.Algorithm)
		if err != nil {
			return false, 0, err
		}
		if subtle.ConstantTimeCompare([]byte(generated), trimmed) == 1 {
			return true, counter, nil
		}
	}
	return false, 0, nil
}

// Code computes the HOTP value for counter.
func Code(secret []byte, counter int64, digits int, algorithm string) (string, error) {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	hf, err := hmacFunc(algorithm)
	if err != nil {
		return "", err
	}
	mac := hmac.New(hf, secret)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	bin := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, bin%mod), nil
}

func hmacFunc(algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "", "SHA1":
		return sha1.New, nil
	case "SHA256":
		return sha256.New, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algorithm)
	}
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

func isNumeric(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(b) > 0
}
