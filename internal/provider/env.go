package provider

import "os"

// Env is the default provider. The provider key doubles as the name of the
// environment variable holding the value.
type Env struct{}

// Resolve looks the key up in the process environment.
func (Env) Resolve(key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", &SecretNotFoundError{Key: key, Provider: NameEnv}
	}
	return value, nil
}
