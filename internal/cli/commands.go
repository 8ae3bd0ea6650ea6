package cli

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/wpd/internal/env"
	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/rileyhilliard/wpd/internal/target"
	"github.com/rileyhilliard/wpd/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the deployment commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows [][]string
			for _, rec := range a.recipes().Sorted() {
				targets := "any"
				if len(rec.Targets) > 0 {
					targets = strings.Join(rec.Targets, ", ")
				}
				rows = append(rows, []string{rec.Usage, rec.Scope.String(), targets, rec.Summary})
			}
			cols := []ui.TableColumn{
				{Title: "COMMAND", Width: 24},
				{Title: "SCOPE", Width: 9},
				{Title: "TARGETS", Width: 22},
				{Title: "DESCRIPTION"},
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderSimpleTable(cols, rows))
			return nil
		},
	}
}

func newTargetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "Show the targets defined in .wpd.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			names := target.Names(cfg)
			if len(names) == 0 {
				ui.Warn(cmd.OutOrStdout(), "No targets defined. Commands run locally with the defaults.")
				return nil
			}

			var rows [][]string
			for _, name := range names {
				p, err := target.Resolve(cfg, name)
				if err != nil {
					return err
				}
				hosts := "(local)"
				if !p.Local {
					hosts = strings.Join(p.Hosts, ", ")
				}
				rows = append(rows, []string{name, hosts, p.Path})
			}
			cols := []ui.TableColumn{
				{Title: "TARGET", Width: 14},
				{Title: "HOSTS", Width: 30},
				{Title: "PATH"},
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderSimpleTable(cols, rows))
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [target]",
		Short: "Print a target's resolved settings",
		Long: `Print the settings a run against the target starts with, after merging
the defaults and expanding variables. Passwords are masked.

Without a target, shows the settings of an untargeted local run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			p := target.Bare(cfg)
			if len(args) == 1 {
				if p, err = target.Resolve(cfg, args[0]); err != nil {
					return err
				}
			}

			data, err := yaml.Marshal(env.New(p, nil).Redacted())
			if err != nil {
				return errors.WrapWithCode(err, errors.ErrConfig, "Couldn't render the settings", "")
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion scripts for wpd.

Examples:
  # Bash
  wpd completion bash > /etc/bash_completion.d/wpd

  # Zsh
  wpd completion zsh > "${fpath[1]}/_wpd"

  # Fish
  wpd completion fish > ~/.config/fish/completions/wpd.fish`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(out)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletion(out)
			}
		},
	}
}
