// Package fcrypt wraps age encryption for the armored secret files secretfill
// works with.
package fcrypt

import (
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// EncryptReader encrypts r into w as an armored age message for the given
// recipient.
func EncryptReader(r io.Reader, w io.Writer, recipient age.Recipient) error {
	armorWriter := armor.NewWriter(w)

	encryptor, err := age.Encrypt(armorWriter, recipient)
	if err != nil {
		return fmt.Errorf("failed to create encryptor: %w", err)
	}

	if _, err := io.Copy(encryptor, r); err != nil {
		return fmt.Errorf("failed to encrypt: %w", err)
	}

	// Close in reverse order so both layers finalize.
	if err := encryptor.Close(); err != nil {
		return fmt.Errorf("failed to finalize encryption: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize armor: %w", err)
	}

	return nil
}

// DecryptReader decrypts an armored age message from r into w using the given
// identity.
func DecryptReader(r io.Reader, w io.Writer, identity age.Identity) error {
	decryptor, err := age.Decrypt(armor.NewReader(r), identity)
	if err != nil {
		return fmt.Errorf("failed to create decryptor: %w", err)
	}

	if _, err := io.Copy(w, decryptor); err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}

	return nil
}

// EncryptInPlace encrypts path into path.age and removes the plaintext
// original. The original cannot be recovered without the identity.
func EncryptInPlace(path string, recipient age.Recipient) error {
	if err := copyThrough(path, path+".age", func(r io.Reader, w io.Writer) error {
		return EncryptReader(r, w, recipient)
	}); err != nil {
		return err
	}
	return os.Remove(path)
}

// DecryptInPlace decrypts an .age file back to its original name and removes
// the encrypted version.
func DecryptInPlace(path string, identity age.Identity) error {
	if !strings.HasSuffix(path, ".age") {
		return fmt.Errorf("file %s does not have .age extension", path)
	}
	if err := copyThrough(path, strings.TrimSuffix(path, ".age"), func(r io.Reader, w io.Writer) error {
		return DecryptReader(r, w, identity)
	}); err != nil {
		return err
	}
	return os.Remove(path)
}

func copyThrough(inputPath, outputPath string, transform func(io.Reader, io.Writer) error) error {
	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() {
		_ = inputFile.Close()
	}()

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		_ = outputFile.Close()
	}()

	return transform(inputFile, outputFile)
}
