package commands

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/secretfill-dev/secretfill/internal/core"
)

type DeployCmd struct {
	coreFlags *core.Flags
	flags     struct {
		Jobs   int
		DryRun bool
	}
}

func NewDeployCmd(coreFlags *core.Flags) *DeployCmd {
	return &DeployCmd{coreFlags: coreFlags}
}

func (dc *DeployCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:      "deploy",
		Usage:     "Deploy secrets and values into the configured files",
		ArgsUsage: "[expression]",
		Description: `Deploys current secret and configuration values into every configuration
named by the loaded deployment descriptors.

Descriptors come from the SECRETFILL_DEPLOY environment variable (a JSON
document or array) or from the file given with --descriptors.

Descriptors can be filtered with an expression:

  secretfill deploy                          # all descriptors
  secretfill deploy '"db" in tags'           # descriptors tagged 'db'
  secretfill deploy 'name == "app.conf"'     # a single configuration

Expression variables:
  - name: configuration file basename
  - config: full configuration path
  - tags: descriptor tags`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "jobs",
				Aliases:     []string{"j"},
				Usage:       "number of descriptors to process concurrently",
				Value:       1,
				Destination: &dc.flags.Jobs,
			},
			&cli.BoolFlag{
				Name:        "dry-run",
				Usage:       "render configurations to stdout without writing any file",
				Destination: &dc.flags.DryRun,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			filter := strings.Join(c.Args().Slice(), " ")

			log.Debug().
				Str("expr", filter).
				Int("jobs", dc.flags.Jobs).
				Bool("dry-run", dc.flags.DryRun).
				Msg("deploy cmd")

			runner, err := newRunner(dc.coreFlags, filter, dc.flags.Jobs, dc.flags.DryRun)
			if err != nil {
				return err
			}

			return runner.Run(ctx)
		},
	}

	app.Commands = append(app.Commands, cmd)
	return app
}
