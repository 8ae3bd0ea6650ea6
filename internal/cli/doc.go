// Package cli implements the wpd command-line interface.
//
// The root command takes the deployment words directly:
//
//	wpd [flags] [<target>] <command>[:<args>] [<command>[:<args>]...]
//
// for example "wpd production stable deploy" or "wpd staging load_db:jan".
// The words are handed to the dispatch package, which resolves and checks
// every command before any of them runs.
//
// A few helper subcommands sit next to the deployment commands:
//
//	wpd list             - Show the deployment commands
//	wpd targets          - Show the targets defined in .wpd.yaml
//	wpd show [target]    - Print a target's resolved settings
//	wpd version          - Print version information
//	wpd completion SHELL - Generate shell completion
//
// Global flags (--config, --yes, --dry-run, --no-color, --connect-timeout,
// --insecure-host-key) are defined on the root command.
package cli
