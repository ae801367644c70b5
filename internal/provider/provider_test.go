package provider

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filippo.io/age"

	"github.com/secretfill-dev/secretfill/pkgs/fcrypt"
)

func TestEnv_Resolve(t *testing.T) {
	t.Setenv("SECRETFILL_TEST_SECRET", "bLupdLr4R2HY")

	value, err := Env{}.Resolve("SECRETFILL_TEST_SECRET")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if value != "bLupdLr4R2HY" {
		t.Errorf("value = %q", value)
	}
}

func TestEnv_Resolve_missing(t *testing.T) {
	_, err := Env{}.Resolve("SECRETFILL_TEST_SECRET_ABSENT")

	var notFound *SecretNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Resolve() error = %v, want SecretNotFoundError", err)
	}
	if notFound.Key != "SECRETFILL_TEST_SECRET_ABSENT" {
		t.Errorf("Key = %q", notFound.Key)
	}
}

func TestFile_Resolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.toml")
	content := "ENV_PASSWORD = \"bLupdLr4R2HY\"\nAPI_TOKEN = \"tok\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := NewFile(path, "")
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	value, err := p.Resolve("ENV_PASSWORD")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if value != "bLupdLr4R2HY" {
		t.Errorf("value = %q", value)
	}

	_, err = p.Resolve("MISSING")
	var notFound *SecretNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Resolve(MISSING) error = %v, want SecretNotFoundError", err)
	}
}

func TestFile_Resolve_encrypted(t *testing.T) {
	dir := t.TempDir()

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatal(err)
	}

	identityPath := filepath.Join(dir, "key.txt")
	keyFile := "# created by test\n" + identity.String() + "\n"
	if err := os.WriteFile(identityPath, []byte(keyFile), 0o600); err != nil {
		t.Fatal(err)
	}

	secretsPath := filepath.Join(dir, "secrets.toml.age")
	out, err := os.Create(secretsPath)
	if err != nil {
		t.Fatal(err)
	}
	plaintext := "ENV_PASSWORD = \"bLupdLr4R2HY\"\n"
	if err := fcrypt.EncryptReader(strings.NewReader(plaintext), out, identity.Recipient()); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	p, err := NewFile(secretsPath, identityPath)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	value, err := p.Resolve("ENV_PASSWORD")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if value != "bLupdLr4R2HY" {
		t.Errorf("value = %q", value)
	}
}

func TestNew(t *testing.T) {
	if _, err := New("env", Config{}); err != nil {
		t.Errorf("New(env) error = %v", err)
	}
	if _, err := New("vault", Config{}); err == nil {
		t.Error("New(vault) error = nil, want error")
	}
}
