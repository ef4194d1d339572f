package config

import (
	"github.com/MrEthical07/mfabridge"
	"github.com/MrEthical07/mfabridge/module"
)

// Sample returns a starter configuration with one user protected by a
// lockout gate, a password and a TOTP code. adminHash is an argon2 PHC
// string; totpSecret is base32.
func Sample(adminHash, totpSecret string) *Config {
	cfg := GetDefaultConfig()
	cfg.Engine.MetricsEnabled = true
	cfg.Engine.LatencyHistograms = true
	cfg.Engine.AuditEnabled = true
	cfg.Metrics.Enabled = true

	users := []map[string]any{{
		"username":      "admin",
		"password_hash": adminHash,
		"roles":         []string{"admin"},
	}}
	cfg.Chains = []ChainConfig{
		{
			Name: mfabridge.DefaultChainName,
			Modules: []module.EntryConfig{
				{Type: "lockout", Flag: "requisite", Options: map[string]any{"threshold": 5, "window": "15m"}},
				{Type: "static", Flag: "required", Options: map[string]any{"users": users}},
				{Type: "totp", Flag: "required", Options: map[string]any{
					"slot":    1,
					"secrets": map[string]string{"admin": totpSecret},
				}},
			},
		},
		{
			Name: "PasswordOnly",
			Modules: []module.EntryConfig{
				{Type: "static", Flag: "required", Options: map[string]any{"users": users}},
			},
		},
	}
	return cfg
}
