package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/secretfill-dev/secretfill/internal/core"
)

type RunCmd struct {
	coreFlags *core.Flags
	flags     struct {
		Filter string
		Jobs   int
	}
}

func NewRunCmd(coreFlags *core.Flags) *RunCmd {
	return &RunCmd{coreFlags: coreFlags}
}

func (rc *RunCmd) Register(app *cli.Command) *cli.Command {
	cmd := &cli.Command{
		Name:      "run",
		Usage:     "Deploy secrets, then hand control to the wrapped command",
		ArgsUsage: "-- CMD [ARGS...]",
		Description: `Runs the full deployment and then executes the given command with
inherited stdio. This is the container entrypoint mode:

  ENTRYPOINT ["secretfill", "run", "--"]
  CMD ["redis-server", "/config/redis.conf"]

If any descriptor fails to deploy, the command is never started and the
process exits non-zero. The command's own exit code is propagated.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "filter",
				Aliases:     []string{"e"},
				Usage:       "descriptor filter expression (see 'secretfill deploy')",
				Destination: &rc.flags.Filter,
			},
			&cli.IntFlag{
				Name:        "jobs",
				Aliases:     []string{"j"},
				Usage:       "number of descriptors to process concurrently",
				Value:       1,
				Destination: &rc.flags.Jobs,
			},
		},
		Action: rc.run,
	}

	app.Commands = append(app.Commands, cmd)
	return app
}

func (rc *RunCmd) run(ctx context.Context, c *cli.Command) error {
	args := c.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("no command given to run after deployment")
	}

	runner, err := newRunner(rc.coreFlags, rc.flags.Filter, rc.flags.Jobs, false)
	if err != nil {
		return err
	}

	if err := runner.Run(ctx); err != nil {
		return err
	}

	// Forward termination signals to the wrapped command.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	terminalWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		terminalWidth = 80
	}

	dividerPrefix := fmt.Sprintf("-- [RUN] %s ", strings.Join(args, " "))
	if len(dividerPrefix) < terminalWidth {
		fmt.Println(dividerPrefix + strings.Repeat("-", terminalWidth-len(dividerPrefix)))
	} else {
		fmt.Println(dividerPrefix)
	}

	log.Debug().Strs("args", args).Msg("executing wrapped command")

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return cli.Exit("", exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run %s: %w", args[0], err)
	}

	return nil
}
