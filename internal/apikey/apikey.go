package apikey

import (
	"fmt"
	"os"
	"strings"
)

const (
	// Prefix starts every TickVault API key.
	Prefix = "tv-"
	// KeyLength is the full key length, prefix included.
	KeyLength = 32
	// EnvKey is the environment variable FromEnv reads the key from.
	EnvKey = "TICKVAULT_API_KEY"
)

// Validate checks that key has the shape of a TickVault API key. The
// returned error describes the first problem found and never echoes the
// key itself.
func Validate(key string) error {
	if key == "" {
		return fmt.Errorf("api key is empty, set %s or pass one explicitly", EnvKey)
	}
	if !strings.HasPrefix(key, Prefix) {
		return fmt.Errorf("api key must start with %q", Prefix)
	}
	if len(key) != KeyLength {
		return fmt.Errorf("api key must be %d characters, got %d", KeyLength, len(key))
	}
	return nil
}

// Mask renders key safe for logs, keeping just enough to tell keys apart.
func Mask(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

// FromEnv reads the API key from the environment.
func FromEnv() (string, error) {
	key := os.Getenv(EnvKey)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", EnvKey)
	}
	return key, nil
}
