// Package device manages the persistent per-installation device identifier
// that the media server uses to recognize this client across sessions.
package device

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const settingKey = "device.id"

// Store is the key-value storage the identifier is persisted in
type Store interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// EnsureID returns the stored device identifier, generating and persisting a
// new UUID v4 on first run. The identifier is never regenerated unless the
// underlying storage is cleared.
func EnsureID(store Store) (string, error) {
	id, err := store.GetSetting(settingKey)
	if err != nil {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := store.SetSetting(settingKey, id); err != nil {
		return "", fmt.Errorf("failed to persist device id: %w", err)
	}

	log.Info().Str("device_id", id).Msg("Generated new device identifier")
	return id, nil
}
