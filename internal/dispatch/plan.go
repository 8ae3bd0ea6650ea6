// Package dispatch turns command-line words into a validated plan of recipe
// steps and runs it against the selected target's hosts.
package dispatch

import (
	"fmt"

	"github.com/rileyhilliard/wpd/internal/config"
	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/rileyhilliard/wpd/internal/recipe"
	"github.com/rileyhilliard/wpd/internal/target"
	"github.com/rileyhilliard/wpd/internal/util"
)

// Step is one resolved command of an invocation.
type Step struct {
	Recipe recipe.Recipe
	Args   recipe.Args
	// Word is the command as typed, for messages.
	Word string
}

// Plan is a fully resolved invocation. Building one has no side effects.
type Plan struct {
	// Target is the selected target name, empty for an untargeted run.
	Target  string
	Profile target.Profile
	Steps   []Step
}

// Build resolves words of the form [target] command[:args]... against cfg
// and reg. Every command is resolved and checked against its allowed
// targets before Build returns, so a plan that builds can start running.
func Build(cfg *config.Config, reg recipe.Registry, words []string) (*Plan, error) {
	if len(words) == 0 {
		return nil, errors.Configuration("No command given", "Run 'wpd list' to see the available commands.")
	}

	plan := &Plan{}
	rest := words
	first, _ := SplitWord(words[0])
	switch {
	case target.IsTarget(cfg, words[0]):
		plan.Target = words[0]
		rest = words[1:]
	case isCommand(reg, first):
	case len(words) > 1:
		_, err := target.Resolve(cfg, words[0])
		return nil, err
	default:
		return nil, unknownCommand(reg, first)
	}

	if plan.Target != "" {
		profile, err := target.Resolve(cfg, plan.Target)
		if err != nil {
			return nil, err
		}
		plan.Profile = profile
	} else {
		plan.Profile = target.Bare(cfg)
	}

	if len(rest) == 0 {
		return nil, errors.Configuration(
			fmt.Sprintf("No command given for target '%s'", plan.Target),
			fmt.Sprintf("Run it as 'wpd %s <command>'. 'wpd list' shows the commands.", plan.Target))
	}

	for _, word := range rest {
		name, args := SplitWord(word)
		rec, ok := reg.Lookup(name)
		if !ok {
			return nil, unknownCommand(reg, name)
		}
		if err := checkTarget(rec, plan.Target); err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, Step{Recipe: rec, Args: args, Word: word})
	}
	return plan, nil
}

func isCommand(reg recipe.Registry, name string) bool {
	_, ok := reg.Lookup(name)
	return ok
}

func checkTarget(rec recipe.Recipe, name string) error {
	if len(rec.Targets) == 0 {
		return nil
	}
	for _, allowed := range rec.Targets {
		if allowed == name {
			return nil
		}
	}
	got := name
	if got == "" {
		got = "no target"
	}
	return errors.Configuration(
		fmt.Sprintf("'%s' needs one of these targets: %s (got %s)", rec.Name, util.JoinOrNone(rec.Targets), got),
		fmt.Sprintf("Run it as 'wpd %s %s'.", rec.Targets[0], rec.Name))
}

func unknownCommand(reg recipe.Registry, name string) error {
	if name == "" {
		return errors.Configuration("Empty command name", "Run 'wpd list' to see the available commands.")
	}
	err := errors.UnknownCommand(name)
	if similar := util.SuggestSimilar(name, reg.Names(), 3); len(similar) > 0 {
		for i, s := range similar {
			similar[i] = "'" + s + "'"
		}
		err.Suggestion = "Did you mean " + util.JoinOrNone(similar) + "? " + err.Suggestion
	}
	return err
}
