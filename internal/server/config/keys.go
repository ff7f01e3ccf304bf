package config

import "github.com/arvos-io/expiryledger/internal/core/domain"

// APIKeys converts the configured keyring to domain keys.
func (s AuthSection) APIKeys() []*domain.APIKey {
	keys := make([]*domain.APIKey, 0, len(s.Keys))
	for _, k := range s.Keys {
		keys = append(keys, &domain.APIKey{
			ID:         k.ID,
			SecretHash: k.SecretHash,
			Role:       domain.Role(k.Role),
			Disabled:   k.Disabled,
		})
	}
	return keys
}
