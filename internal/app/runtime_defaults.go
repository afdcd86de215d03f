package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const flowSecretBytes = 32

// ApplyRuntimeDefaults ensures critical secrets are populated even when no configuration file is supplied.
// It returns a map describing which keys were generated so callers can log the event without exposing values.
//
// A generated flow secret does not survive restarts, so OAuth attempts in flight
// during a restart fail and must be retried.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Auth.Flow.Secret) == "" {
		secret, err := generateHexKey(flowSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate flow secret: %w", err)
		}
		cfg.Auth.Flow.Secret = secret
		generated["auth.flow.secret"] = true
	}

	return generated, nil
}

func generateHexKey(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
