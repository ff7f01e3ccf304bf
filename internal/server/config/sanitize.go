package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked,
// for logging the effective configuration at startup.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg

	keys := make([]KeyConfig, len(cfg.Auth.Keys))
	copy(keys, cfg.Auth.Keys)
	for i := range keys {
		keys[i].SecretHash = maskSecret(keys[i].SecretHash)
	}
	sanitized.Auth.Keys = keys

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", 8) + s[len(s)-2:]
}
