package recipe

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/wpd/internal/errors"
)

// Args are the arguments given after "name:" on the command line.
type Args struct {
	Positional []string
	Keyword    map[string]string
}

// Get returns the keyword argument name, else positional argument i, else def.
func (a Args) Get(i int, name, def string) string {
	if v, ok := a.Keyword[name]; ok {
		return v
	}
	if i >= 0 && i < len(a.Positional) {
		return a.Positional[i]
	}
	return def
}

// Empty reports whether no arguments were given.
func (a Args) Empty() bool {
	return len(a.Positional) == 0 && len(a.Keyword) == 0
}

// require returns argument i (or keyword name), failing when it is absent.
func (a Args) require(recipe string, i int, name string) (string, error) {
	v := a.Get(i, name, "")
	if v == "" {
		return "", errors.Configuration(
			fmt.Sprintf("%s needs a %s argument", recipe, name),
			fmt.Sprintf("Run it as '%s:<%s>'.", recipe, name))
	}
	return v, nil
}

// checkName rejects values that would escape the directory they name a file in.
func checkName(recipe, what, v string) error {
	if v == "" || v == "." || v == ".." || strings.Contains(v, "/") || strings.HasPrefix(v, "-") {
		return errors.Configuration(
			fmt.Sprintf("%s: '%s' is not a valid %s", recipe, v, what),
			"Use a plain file name without slashes.")
	}
	return nil
}
