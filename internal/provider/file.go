package provider

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/secretfill-dev/secretfill/pkgs/fcrypt"
)

// File resolves keys against a flat TOML table of string values. When the
// secrets file carries an .age extension it is decrypted with the configured
// identity before parsing, so secrets never have to sit on disk in plaintext.
type File struct {
	path   string
	values map[string]string
}

// NewFile loads and parses the secrets file once for this run.
func NewFile(path, identityFile string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("no secrets file configured for the %s provider", NameFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}

	if strings.HasSuffix(path, ".age") {
		identity, err := fcrypt.ReadIdentityFile(identityFile)
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := fcrypt.DecryptReader(bytes.NewReader(data), &buf, identity); err != nil {
			return nil, fmt.Errorf("failed to decrypt secrets file %s: %w", path, err)
		}
		data = buf.Bytes()
	}

	values := map[string]string{}
	if _, err := toml.Decode(string(data), &values); err != nil {
		return nil, fmt.Errorf("failed to parse secrets file %s: %w", path, err)
	}

	return &File{path: path, values: values}, nil
}

// Resolve looks the key up in the loaded secrets table.
func (f *File) Resolve(key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", &SecretNotFoundError{Key: key, Provider: NameFile}
	}
	return value, nil
}
