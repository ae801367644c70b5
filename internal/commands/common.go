// Package commands contains the CLI commands for the application
package commands

import (
	"github.com/secretfill-dev/secretfill/internal/core"
	"github.com/secretfill-dev/secretfill/internal/deploy"
	"github.com/secretfill-dev/secretfill/internal/descriptor"
	"github.com/secretfill-dev/secretfill/internal/provider"
)

// newLoader picks the descriptor loader from the global flags: a file when
// --descriptors was given, the environment variable otherwise.
func newLoader(flags *core.Flags) (descriptor.Loader, error) {
	if flags.Descriptors != "" {
		return descriptor.NewLoader(descriptor.LoaderFile, flags.Descriptors)
	}
	return descriptor.NewLoader(descriptor.LoaderEnv, descriptor.DefaultEnvVar)
}

// newRunner assembles the deployment runner shared by the deploy and run
// commands.
func newRunner(flags *core.Flags, filter string, jobs int, dryRun bool) (*deploy.Runner, error) {
	loader, err := newLoader(flags)
	if err != nil {
		return nil, err
	}

	return deploy.NewRunner(loader, deploy.Options{
		Provider: provider.Config{
			SecretsFile:  flags.SecretsFile,
			IdentityFile: flags.IdentityFile,
		},
		Filter: filter,
		Jobs:   jobs,
		DryRun: dryRun,
	}), nil
}
