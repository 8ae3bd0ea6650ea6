package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/wpd/internal/errors"
)

// ReservedTargetNames are subcommand names that cannot be used as target names.
var ReservedTargetNames = map[string]bool{
	"help":       true,
	"version":    true,
	"completion": true,
	"list":       true,
	"targets":    true,
	"show":       true,
}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but wpd only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade wpd.")
	}

	if strings.TrimSpace(cfg.Project) == "" {
		return errors.New(errors.ErrConfig,
			"No project_name set",
			"Add 'project_name: <site>' to .wpd.yaml.")
	}

	switch cfg.Strategy {
	case StrategyGit, StrategySVN:
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown checkout strategy '%s'", cfg.Strategy),
			"Use 'git' or 'svn'.")
	}

	for name, target := range cfg.Targets {
		if err := validateTarget(name, target); err != nil {
			return err
		}
	}

	return nil
}

func validateTarget(name string, s Settings) error {
	if ReservedTargetNames[name] {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Can't use '%s' as a target name - that's a built-in command", name),
			fmt.Sprintf("Pick a different name, like 'my-%s'.", name))
	}
	if strings.ContainsAny(name, ": ,") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Target name '%s' contains ':', ',' or a space", name),
			"Use a plain name like 'production' or 'staging'.")
	}

	seen := make(map[string]bool)
	for _, h := range s.Hosts {
		if strings.TrimSpace(h) == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Target '%s' has an empty host entry", name),
				"Remove the blank line from its hosts list.")
		}
		if seen[h] {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Target '%s' lists host '%s' twice", name, h),
				"Each host only needs to appear once.")
		}
		seen[h] = true
	}
	return nil
}
