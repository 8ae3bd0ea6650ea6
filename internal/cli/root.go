package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rileyhilliard/wpd/internal/config"
	"github.com/rileyhilliard/wpd/internal/credential"
	"github.com/rileyhilliard/wpd/internal/dispatch"
	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/rileyhilliard/wpd/internal/guard"
	"github.com/rileyhilliard/wpd/internal/logger"
	"github.com/rileyhilliard/wpd/internal/recipe"
	"github.com/rileyhilliard/wpd/internal/transfer"
	"github.com/rileyhilliard/wpd/internal/ui"
	"github.com/rileyhilliard/wpd/pkg/sshutil"
	"github.com/spf13/cobra"
)

// app holds the global flags and the collaborators a run is wired with.
// Tests replace the collaborators; nil means the real terminal and SSH.
type app struct {
	configPath     string
	yes            bool
	dryRun         bool
	noColor        bool
	connectTimeout time.Duration
	insecureHost   bool

	confirm     guard.Confirmer
	credentials credential.Provider
	dial        dispatch.Dialer
	registry    recipe.Registry
}

var rootCmd = newRootCmd(&app{})

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wpd [target] <command>[:args] [<command>[:args]...]",
		Short: "Deploy and maintain WordPress sites",
		Long: `wpd runs deployment recipes for a WordPress site against the servers
of a target defined in .wpd.yaml.

Commands run in the order given. Branch selectors like stable or
branch:<name> only change settings for the commands after them.

Examples:
  wpd production stable deploy
  wpd staging load_db:jan
  wpd staging branch:feature/search deploy clear_cache
  wpd git_tag_stable
  wpd --dry-run production shiva_the_destroyer`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.noColor || os.Getenv("NO_COLOR") != "" {
				ui.DisableColors()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: .wpd.yaml in this or a parent directory)")
	flags.BoolVarP(&a.yes, "yes", "y", false, "answer yes to ordinary confirmations")
	flags.BoolVarP(&a.dryRun, "dry-run", "n", false, "print commands without running them")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	flags.DurationVar(&a.connectTimeout, "connect-timeout", sshutil.DefaultTimeout, "SSH connect timeout")
	flags.BoolVar(&a.insecureHost, "insecure-host-key", false, "skip known_hosts verification")

	cmd.AddCommand(newListCmd(a), newTargetsCmd(a), newShowCmd(a), newVersionCmd(), newCompletionCmd(cmd))
	return cmd
}

// Execute runs the root command and exits with its status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	sshutil.CloseAgent()
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(ExitCode(err))
	}
}

// ExitCode maps an error to the process exit status. Interrupted runs exit
// 130 like a shell; every other failure exits 1.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

func (a *app) recipes() recipe.Registry {
	if a.registry == nil {
		a.registry = recipe.Default()
	}
	return a.registry
}

// loadConfig finds, loads and validates .wpd.yaml.
func (a *app) loadConfig() (*config.Config, error) {
	path, err := config.Find(a.configPath)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, errors.Configuration("No "+config.ConfigFileName+" found",
			"Create one in the site checkout, or point at one with --config.")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) run(ctx context.Context, out, errOut io.Writer, words []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	plan, err := dispatch.Build(cfg, a.recipes(), words)
	if err != nil {
		return err
	}

	runner := &dispatch.Runner{
		Confirm:     a.confirmer(out),
		Credentials: a.credentials,
		Transfer:    &transfer.Rsync{Out: out, DryRun: a.dryRun},
		Dial:        a.dialer(),
		Out:         out,
		Err:         errOut,
		Logger:      logger.FromEnv("[wpd]"),
		DryRun:      a.dryRun,
	}
	if runner.Credentials == nil {
		runner.Credentials = credential.Default()
	}
	return runner.Run(ctx, plan)
}

func (a *app) confirmer(out io.Writer) guard.Confirmer {
	c := a.confirm
	if c == nil {
		c = guard.NewTerminal(out)
	}
	if a.yes {
		return guard.AutoYes{Next: c}
	}
	return c
}

func (a *app) dialer() dispatch.Dialer {
	if a.dial != nil {
		return a.dial
	}
	opts := sshutil.DialOptions{Timeout: a.connectTimeout, InsecureIgnoreHostKey: a.insecureHost}
	return func(host string) (sshutil.SSHClient, error) {
		c, err := sshutil.Dial(host, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
