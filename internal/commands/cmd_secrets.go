package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/secretfill-dev/secretfill/internal/core"
	"github.com/secretfill-dev/secretfill/pkgs/fcrypt"
)

type SecretsCmd struct {
	coreFlags *core.Flags
	flags     struct {
		Recipient string
	}
}

func NewSecretsCmd(coreFlags *core.Flags) *SecretsCmd {
	return &SecretsCmd{coreFlags: coreFlags}
}

func (sc *SecretsCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:  "secrets",
		Usage: "Manage the encrypted secrets file used by the file provider",
		Commands: []*cli.Command{
			{
				Name:  "encrypt",
				Usage: "encrypt the secrets file in-place",
				Description: `Encrypts the TOML secrets file given by --secrets-file with age,
replacing it with a .age version. The plaintext original is removed and
cannot be recovered without the identity key.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "recipient",
						Aliases:     []string{"r"},
						Usage:       "age public key to encrypt for",
						Required:    true,
						Destination: &sc.flags.Recipient,
					},
				},
				Action: sc.encrypt,
			},
			{
				Name:  "decrypt",
				Usage: "decrypt the secrets file in-place",
				Description: `Decrypts the .age secrets file given by --secrets-file back to
plaintext TOML using the identity from --age-identity-file, removing the
encrypted version. Use this to edit the secrets, then encrypt again.`,
				Action: sc.decrypt,
			},
		},
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (sc *SecretsCmd) encrypt(ctx context.Context, c *cli.Command) error {
	path := sc.coreFlags.SecretsFile
	if path == "" {
		return fmt.Errorf("no secrets file given, set --secrets-file")
	}
	if strings.HasSuffix(path, ".age") {
		path = strings.TrimSuffix(path, ".age")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("secrets file %s does not exist", path)
	}

	recipient, err := fcrypt.LoadPublicKey(sc.flags.Recipient)
	if err != nil {
		return err
	}

	if err := fcrypt.EncryptInPlace(path, recipient); err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", path, err)
	}

	log.Info().Str("file", path+".age").Msg("secrets file encrypted")
	return nil
}

func (sc *SecretsCmd) decrypt(ctx context.Context, c *cli.Command) error {
	path := sc.coreFlags.SecretsFile
	if path == "" {
		return fmt.Errorf("no secrets file given, set --secrets-file")
	}
	if !strings.HasSuffix(path, ".age") {
		path += ".age"
	}

	identity, err := fcrypt.ReadIdentityFile(sc.coreFlags.IdentityFile)
	if err != nil {
		return err
	}

	if err := fcrypt.DecryptInPlace(path, identity); err != nil {
		return fmt.Errorf("failed to decrypt %s: %w", path, err)
	}

	log.Info().Str("file", strings.TrimSuffix(path, ".age")).Msg("secrets file decrypted")
	return nil
}
