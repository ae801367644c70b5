package fcrypt

import (
	"fmt"
	"os"
	"strings"

	"filippo.io/age"
)

// LoadPublicKey parses an age public key string.
func LoadPublicKey(key string) (*age.X25519Recipient, error) {
	recipient, err := age.ParseX25519Recipient(key)
	if err != nil {
		return nil, fmt.Errorf("error parsing age public key %q: %w", key, err)
	}
	return recipient, nil
}

// LoadPrivateKey parses an age private key string.
func LoadPrivateKey(key string) (*age.X25519Identity, error) {
	identity, err := age.ParseX25519Identity(key)
	if err != nil {
		return nil, fmt.Errorf("error parsing age private key: %w", err)
	}
	return identity, nil
}

// ReadIdentityFile loads the first age identity from a key file, skipping
// comments and blank lines (the format age-keygen writes).
func ReadIdentityFile(path string) (age.Identity, error) {
	if path == "" {
		return nil, fmt.Errorf("no age identity file configured")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return LoadPrivateKey(line)
		}
	}

	return nil, fmt.Errorf("no valid key found in identity file %s", path)
}
