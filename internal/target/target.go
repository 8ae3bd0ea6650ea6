// Package target resolves a target name from .wpd.yaml into the immutable
// settings profile a run uses.
package target

import (
	"sort"

	"github.com/rileyhilliard/wpd/internal/config"
	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/rileyhilliard/wpd/internal/util"
)

// Store keys seeded from a Profile.
const (
	KeySettings     = "settings"
	KeyProject      = "project_name"
	KeyRepo         = "gitrepo"
	KeyStrategy     = "strategy"
	KeyStableBranch = "stable_branch"
	KeyHosts        = "hosts"
	KeyPath         = "path"
	KeyBranch       = "gitbranch"
	KeySubmodules   = "gitsubmodules"
	KeyDomain       = "wpdomain"
	KeyPrefix       = "prefix"
	KeyScriptsDir   = "scripts_dir"
	KeyFixPerms     = "fix_perms"
	KeySyncSource   = "sync_source"
	KeyCacheServers = "cache_servers"
	KeyDBHost       = "db_host"
	KeyDBName       = "db_name"
	KeyDBRootUser   = "db_root_user"
	KeyDBRootPass   = "db_root_pass"
	KeyDBWPUser     = "db_wpuser_name"
	KeyDBWPPass     = "db_wpuser_pass"
)

// SecretKeys are redacted whenever a profile or store is rendered.
var SecretKeys = map[string]bool{
	KeyDBRootPass: true,
	KeyDBWPPass:   true,
}

// Profile is a fully merged and expanded target. It is not modified after
// Resolve returns it.
type Profile struct {
	// Name is the target name, empty for an untargeted run.
	Name         string
	Project      string
	Repo         string
	Strategy     string
	StableBranch string
	Hosts        []string
	Local        bool
	Path         string
	Branch       string
	Submodules   bool
	Domain       string
	Prefix       string
	ScriptsDir   string
	FixPerms     bool
	SyncSource   string
	CacheServers []string
	DB           config.DBSettings
}

// Resolve returns the profile for the named target.
func Resolve(cfg *config.Config, name string) (Profile, error) {
	s, ok := cfg.Targets[name]
	if !ok {
		err := errors.UnknownTarget(name)
		if similar := util.SuggestSimilar(name, Names(cfg), 3); len(similar) > 0 {
			err.Suggestion = "Did you mean " + util.JoinOrNone(quoted(similar)) + "? " + err.Suggestion
		}
		return Profile{}, err
	}
	return build(cfg, name, config.Merge(cfg.Defaults, s), false), nil
}

// Bare returns the profile for an untargeted run: the defaults section,
// always executed on the workstation.
func Bare(cfg *config.Config) Profile {
	return build(cfg, "", cfg.Defaults, true)
}

// Names returns the configured target names in sorted order.
func Names(cfg *config.Config) []string {
	names := make([]string, 0, len(cfg.Targets))
	for name := range cfg.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsTarget reports whether name is a configured target.
func IsTarget(cfg *config.Config, name string) bool {
	_, ok := cfg.Targets[name]
	return ok
}

func build(cfg *config.Config, name string, s config.Settings, forceLocal bool) Profile {
	local := forceLocal || len(s.Hosts) == 0 || config.Bool(s.Local)

	vars := config.RemoteVars(cfg.Project)
	expand := func(v string) string { return config.Expand(v, vars) }
	if local {
		vars = config.LocalVars(cfg.Project)
		expand = func(v string) string { return config.ExpandTilde(config.Expand(v, vars)) }
	}

	return Profile{
		Name:         name,
		Project:      cfg.Project,
		Repo:         cfg.Repo,
		Strategy:     cfg.Strategy,
		StableBranch: cfg.StableBranch,
		Hosts:        append([]string(nil), s.Hosts...),
		Local:        local,
		Path:         expand(s.Path),
		Branch:       s.Branch,
		Submodules:   config.Bool(s.Submodules),
		Domain:       s.Domain,
		Prefix:       s.Prefix,
		ScriptsDir:   s.ScriptsDir,
		FixPerms:     config.Bool(s.FixPerms),
		SyncSource:   config.Expand(s.SyncSource, config.RemoteVars(cfg.Project)),
		CacheServers: append([]string(nil), s.CacheServers...),
		DB:           s.DB,
	}
}

// ExecHosts returns the hosts commands run on: the configured hosts, or
// the workstation alone in local mode.
func (p Profile) ExecHosts() []string {
	if p.Local {
		return []string{"local"}
	}
	return append([]string(nil), p.Hosts...)
}

// Settings returns the values that seed a run's environment store. Unset
// values are left out so requirements on them fail.
func (p Profile) Settings() map[string]any {
	m := map[string]any{}
	put := func(key string, v string) {
		if v != "" {
			m[key] = v
		}
	}

	put(KeySettings, p.Name)
	put(KeyProject, p.Project)
	put(KeyRepo, p.Repo)
	put(KeyStrategy, p.Strategy)
	put(KeyStableBranch, p.StableBranch)
	put(KeyPath, p.Path)
	put(KeyBranch, p.Branch)
	put(KeyDomain, p.Domain)
	put(KeyScriptsDir, p.ScriptsDir)
	put(KeySyncSource, p.SyncSource)
	put(KeyDBHost, p.DB.Host)
	put(KeyDBName, p.DB.Name)
	put(KeyDBRootUser, p.DB.RootUser)
	put(KeyDBRootPass, p.DB.RootPass)
	put(KeyDBWPUser, p.DB.WPUser)
	put(KeyDBWPPass, p.DB.WPPass)

	// Always present, even when empty or false.
	m[KeyPrefix] = p.Prefix
	m[KeySubmodules] = p.Submodules
	m[KeyFixPerms] = p.FixPerms
	if len(p.Hosts) > 0 {
		m[KeyHosts] = append([]string(nil), p.Hosts...)
	}
	m[KeyCacheServers] = append([]string(nil), p.CacheServers...)
	return m
}

func quoted(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "'" + n + "'"
	}
	return out
}
