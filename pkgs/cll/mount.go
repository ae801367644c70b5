// Package cll holds small helpers for composing a urfave/cli/v3 application.
package cll

import "github.com/urfave/cli/v3"

// Registerable is implemented by command builders that mount themselves onto
// the root command, usually by appending a subcommand with its own flags.
type Registerable interface {
	Register(*cli.Command) *cli.Command
}

// Register mounts each builder onto the root command in order, so the
// application assembles from independent command files:
//
//	app = cll.Register(app,
//		commands.NewDeployCmd(flags),
//		commands.NewRunCmd(flags),
//	)
func Register(root *cli.Command, subs ...Registerable) *cli.Command {
	for _, s := range subs {
		root = s.Register(root)
	}

	return root
}

// EnvWithPrefix builds flag value sources that all live under one environment
// namespace. With the SECRETFILL_ prefix, the secrets-file flag below is also
// settable through SECRETFILL_SECRETS_FILE:
//
//	envvars := cll.EnvWithPrefix(core.EnvPrefix)
//	&cli.StringFlag{
//		Name:    "secrets-file",
//		Sources: envvars("SECRETS_FILE"),
//	}
func EnvWithPrefix(prefix string) func(strs ...string) cli.ValueSourceChain {
	return func(strs ...string) cli.ValueSourceChain {
		withPrefix := make([]string, len(strs))

		for i, str := range strs {
			withPrefix[i] = prefix + str
		}

		return cli.EnvVars(withPrefix...)
	}
}
