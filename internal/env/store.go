// Package env holds the mutable settings of a single run.
//
// A Store is seeded from the resolved target profile and extended while
// recipes execute: branch selectors set gitbranch, the database recipes
// cache the root password after asking for it once. Nothing is persisted
// between invocations.
package env

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rileyhilliard/wpd/internal/credential"
	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/rileyhilliard/wpd/internal/target"
	"github.com/rileyhilliard/wpd/internal/util"
	"github.com/spf13/cast"
)

// Store is the run-scoped key/value environment. It is not safe for
// concurrent use; a run is single-threaded.
type Store struct {
	profile  target.Profile
	values   map[string]any
	secrets  map[string]bool
	provider credential.Provider
}

// New creates a store seeded from profile. provider answers Secret lookups
// for keys the profile leaves unset; nil means secrets must be configured.
func New(profile target.Profile, provider credential.Provider) *Store {
	s := &Store{
		profile:  profile,
		values:   profile.Settings(),
		secrets:  make(map[string]bool),
		provider: provider,
	}
	for k := range target.SecretKeys {
		s.secrets[k] = true
	}
	return s
}

// Profile returns the profile the store was seeded from.
func (s *Store) Profile() target.Profile { return s.profile }

// Target returns the active target name, empty for untargeted runs.
func (s *Store) Target() string { return s.profile.Name }

// Has reports whether key is set.
func (s *Store) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Get returns the value for key, or a CONFIG error when it is unset.
func (s *Store) Get(key string) (any, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, MissingKey(key)
	}
	return v, nil
}

// MissingKey returns the error for an unset key.
func MissingKey(key string) *errors.Error {
	return errors.Configuration(
		fmt.Sprintf("Setting '%s' is not set", key),
		"Add it to .wpd.yaml or pick a target that defines it.")
}

// Set stores value under key, replacing any previous value.
func (s *Store) Set(key string, value any) {
	s.values[key] = value
}

// MarkSecret makes key render masked in Redacted.
func (s *Store) MarkSecret(key string) {
	s.secrets[key] = true
}

// String returns key as a string.
func (s *Store) String(key string) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", err
	}
	str, err := cast.ToStringE(v)
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Setting '%s' is not text", key), "Check its value in .wpd.yaml.")
	}
	return str, nil
}

// StringOr returns key as a string, or def when it is unset.
func (s *Store) StringOr(key, def string) string {
	if !s.Has(key) {
		return def
	}
	return cast.ToString(s.values[key])
}

// Bool returns key as a bool; unset keys are false.
func (s *Store) Bool(key string) bool {
	return cast.ToBool(s.values[key])
}

// Strings returns key as a list of strings; unset keys are empty.
func (s *Store) Strings(key string) []string {
	return cast.ToStringSlice(s.values[key])
}

// Require fails with a CONFIG error when key is unset. providedBy names the
// commands or targets that set it, for the error message.
func (s *Store) Require(key string, providedBy ...string) error {
	if v, ok := s.values[key]; ok && cast.ToString(v) != "" {
		return nil
	}
	msg := fmt.Sprintf("The '%s' setting is required", key)
	sugg := "Add it to .wpd.yaml."
	if len(providedBy) > 0 {
		sugg = "It is provided by: " + util.JoinOrNone(providedBy) + "."
	}
	return errors.Configuration(msg, sugg)
}

// RequireTarget fails with a CONFIG error unless the active target is one
// of allowed.
func (s *Store) RequireTarget(allowed ...string) error {
	for _, name := range allowed {
		if s.profile.Name == name {
			return nil
		}
	}
	if len(allowed) == 0 {
		return nil
	}
	current := s.profile.Name
	if current == "" {
		current = "no target"
	}
	return errors.Configuration(
		fmt.Sprintf("This command needs one of these targets: %s (got %s)", util.JoinOrNone(allowed), current),
		fmt.Sprintf("Run it as 'wpd %s <command>'.", allowed[0]))
}

// Secret returns the value for key, asking the credential provider the
// first time and caching the answer for the rest of the run.
func (s *Store) Secret(key, prompt string) (string, error) {
	s.secrets[key] = true
	if v, ok := s.values[key]; ok {
		if str := cast.ToString(v); str != "" {
			return str, nil
		}
	}
	if s.provider == nil {
		return "", MissingKey(key)
	}
	v, err := s.provider.Lookup(key, prompt)
	if err != nil {
		return "", err
	}
	s.values[key] = v
	return v, nil
}

// Keys returns the set keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Redacted returns a copy of the values with secrets masked.
func (s *Store) Redacted() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		if s.secrets[k] {
			out[k] = "****"
			continue
		}
		out[k] = v
	}
	return out
}

// Dump renders the redacted store as sorted key=value lines.
func (s *Store) Dump() string {
	red := s.Redacted()
	var b strings.Builder
	for _, k := range s.Keys() {
		fmt.Fprintf(&b, "%s=%v\n", k, red[k])
	}
	return b.String()
}

// Getter reads several string keys and remembers the first failure, so
// recipes can read their settings and check once.
type Getter struct {
	s   *Store
	err error
}

// Reader returns a Getter over s.
func (s *Store) Reader() *Getter {
	return &Getter{s: s}
}

// String returns key or "" after recording the first error.
func (g *Getter) String(key string) string {
	if g.err != nil {
		return ""
	}
	v, err := g.s.String(key)
	if err != nil {
		g.err = err
	}
	return v
}

// Secret returns the secret for key or "" after recording the first error.
func (g *Getter) Secret(key, prompt string) string {
	if g.err != nil {
		return ""
	}
	v, err := g.s.Secret(key, prompt)
	if err != nil {
		g.err = err
	}
	return v
}

// Err returns the first error encountered.
func (g *Getter) Err() error { return g.err }
