// Package core holds the pieces shared by every command: global flags and the
// environment variable namespace.
package core

// EnvPrefix namespaces every environment variable read by the CLI flags.
const EnvPrefix = "SECRETFILL_"

// Flags are the global CLI flags, populated by urfave/cli before any command
// action runs.
type Flags struct {
	LogLevel string

	// Descriptors is an optional path to a JSON or YAML descriptor file.
	// When empty, descriptors come from the SECRETFILL_DEPLOY environment
	// variable.
	Descriptors string

	// SecretsFile and IdentityFile configure the file secret provider.
	SecretsFile  string
	IdentityFile string
}
