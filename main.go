package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/secretfill-dev/secretfill/internal/commands"
	"github.com/secretfill-dev/secretfill/internal/core"
	"github.com/secretfill-dev/secretfill/internal/deploy"
	"github.com/secretfill-dev/secretfill/pkgs/cll"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "v0.2.0-develop"
	commit  = "HEAD"
	date    = time.Now().Format(time.DateTime)
)

var envvars = cll.EnvWithPrefix(core.EnvPrefix)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	flags := &core.Flags{}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "secretfill",
		Usage:                 `Deploy runtime secrets into configuration files before handing control to the container command.`,
		Version:               build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Aliases:     []string{"l"},
				Usage:       "set the logging verbosity level",
				Value:       "info",
				Sources:     envvars("LOG_LEVEL"),
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "descriptors",
				Aliases:     []string{"d"},
				Usage:       "path to a JSON or YAML deployment descriptor file (default: $SECRETFILL_DEPLOY)",
				Sources:     envvars("DESCRIPTORS"),
				Destination: &flags.Descriptors,
			},
			&cli.StringFlag{
				Name:        "secrets-file",
				Usage:       "TOML secrets file for the 'file' provider (.age files are decrypted)",
				Sources:     envvars("SECRETS_FILE"),
				Destination: &flags.SecretsFile,
			},
			&cli.StringFlag{
				Name:        "age-identity-file",
				Usage:       "age identity key file used to decrypt the secrets file",
				Sources:     envvars("AGE_IDENTITY_FILE"),
				Destination: &flags.IdentityFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(flags.LogLevel)
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)

			log.Debug().
				Str("log-level", flags.LogLevel).
				Str("descriptors", flags.Descriptors).
				Msg("global flags")

			return ctx, nil
		},
		OnUsageError: func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
			return err
		},
	}

	app = cll.Register(app,
		commands.NewDeployCmd(flags),
		commands.NewRunCmd(flags),
		commands.NewSecretsCmd(flags),
	)

	if err := app.Run(context.Background(), os.Args); err != nil {
		var deployErr *deploy.DeployError
		if errors.As(err, &deployErr) {
			fmt.Fprintln(os.Stderr, deployErr.Format())
		} else {
			log.Error().Msg(err.Error())
		}

		code := 1
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		os.Exit(code)
	}
}
