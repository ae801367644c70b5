// Package provider contains the secret providers a deployment resolves
// placeholder keys against. Providers are stateless lookups; nothing is cached
// across runs so every deployment reads the current value.
package provider

import "fmt"

// Provider resolves a provider key to its current secret value.
type Provider interface {
	Resolve(key string) (string, error)
}

// SecretNotFoundError is returned when a key is absent from the backing store.
type SecretNotFoundError struct {
	Key      string
	Provider string
}

func (e *SecretNotFoundError) Error() string {
	return fmt.Sprintf("secret %q not available from provider %q", e.Key, e.Provider)
}

// Config carries the provider settings taken from global flags.
type Config struct {
	// SecretsFile is the TOML secrets file used by the file provider. A
	// path with an .age extension is decrypted before parsing.
	SecretsFile string
	// IdentityFile is the age identity used to decrypt an encrypted
	// secrets file.
	IdentityFile string
}

const (
	// NameEnv resolves keys against the process environment.
	NameEnv = "env"
	// NameFile resolves keys against a TOML secrets file.
	NameFile = "file"
)

// Closed registry of provider variants, selected through the descriptor's
// `provider` field.
var providers = map[string]func(cfg Config) (Provider, error){
	NameEnv:  func(Config) (Provider, error) { return Env{}, nil },
	NameFile: func(cfg Config) (Provider, error) { return NewFile(cfg.SecretsFile, cfg.IdentityFile) },
}

// New constructs the provider registered for a tag.
func New(tag string, cfg Config) (Provider, error) {
	factory, ok := providers[tag]
	if !ok {
		return nil, fmt.Errorf("unsupported secret provider %q", tag)
	}
	return factory(cfg)
}
