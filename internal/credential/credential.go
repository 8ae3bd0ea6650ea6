// Package credential supplies secrets such as the database root password.
//
// Providers are tried in order by a Chain. The terminal provider asks the
// operator with a masked prompt; the env and static providers let automated
// runs and tests supply values without a terminal.
package credential

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/wpd/internal/errors"
	"golang.org/x/term"
)

// ErrNotFound is returned by a Provider that has no value for a key.
var ErrNotFound = errors.New(errors.ErrConfig,
	"No value available for a required secret",
	"Set it in .wpd.yaml, export WPD_<KEY>, or run from a terminal to be prompted.")

// Provider returns the secret for key. prompt is the operator-facing label.
type Provider interface {
	Lookup(key, prompt string) (string, error)
}

// Env reads secrets from environment variables named Prefix + upper(key),
// e.g. WPD_DB_ROOT_PASS for db_root_pass.
type Env struct {
	Prefix string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// EnvName returns the variable consulted for key.
func (e Env) EnvName(key string) string {
	return e.Prefix + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}

// Lookup implements Provider.
func (e Env) Lookup(key, _ string) (string, error) {
	getenv := e.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(e.EnvName(key)); v != "" {
		return v, nil
	}
	return "", ErrNotFound
}

// Static serves fixed values.
type Static map[string]string

// Lookup implements Provider.
func (s Static) Lookup(key, _ string) (string, error) {
	if v, ok := s[key]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

// Terminal asks the operator with a masked huh input.
type Terminal struct {
	// In is checked for a terminal; defaults to os.Stdin.
	In *os.File
}

// Lookup implements Provider.
func (t Terminal) Lookup(key, prompt string) (string, error) {
	in := t.In
	if in == nil {
		in = os.Stdin
	}
	if !term.IsTerminal(int(in.Fd())) {
		return "", ErrNotFound
	}

	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(prompt).
				EchoMode(huh.EchoModePassword).
				Value(&value),
		),
	)
	if err := form.Run(); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrDeclined,
			fmt.Sprintf("Prompt for %s was cancelled", key),
			"Run again and enter the value, or set it in the environment.")
	}
	return value, nil
}

// Chain tries providers in order and returns the first value found.
type Chain []Provider

// Lookup implements Provider.
func (c Chain) Lookup(key, prompt string) (string, error) {
	for _, p := range c {
		v, err := p.Lookup(key, prompt)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", errors.WrapWithCode(ErrNotFound, errors.ErrConfig,
		fmt.Sprintf("No value for %s", key),
		fmt.Sprintf("Set it in .wpd.yaml, export %s, or run from a terminal.", Env{Prefix: "WPD_"}.EnvName(key)))
}

// Default is the provider used by the CLI: environment first, then the terminal.
func Default() Provider {
	return Chain{Env{Prefix: "WPD_"}, Terminal{}}
}
