package config

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Checkout strategies.
const (
	StrategyGit = "git"
	StrategySVN = "svn"
)

// Config represents the complete .wpd.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Project is the site's short name; used for the default database name,
	// web-server config file names and the app-server sync path.
	Project string `yaml:"project_name" mapstructure:"project_name"`

	// Repo is the git or svn URL the site is checked out from.
	Repo string `yaml:"repo" mapstructure:"repo"`

	// Strategy is the checkout strategy: "git" or "svn".
	Strategy string `yaml:"strategy" mapstructure:"strategy"`

	// StableBranch is the only branch production deploys go out from
	// without an explicit confirmation.
	StableBranch string `yaml:"stable_branch" mapstructure:"stable_branch"`

	// Defaults apply to every target and to untargeted (local) runs.
	Defaults Settings `yaml:"defaults" mapstructure:"defaults"`

	// Targets are the named deployment destinations.
	Targets map[string]Settings `yaml:"targets" mapstructure:"targets"`
}

// Settings holds the per-target deployment settings. Zero values mean
// "inherit from defaults"; toggles are pointers so false can override true.
type Settings struct {
	// Hosts are SSH destinations (alias, host, user@host or host:port).
	// A target with no hosts runs on the workstation.
	Hosts []string `yaml:"hosts" mapstructure:"hosts"`

	// Local forces local execution even when hosts are listed.
	Local *bool `yaml:"local,omitempty" mapstructure:"local"`

	// Path is the deployed site's base directory.
	Path string `yaml:"path" mapstructure:"path"`

	// Branch is the git branch to check out. Can be overridden for a run
	// with the stable, master and branch:<name> commands.
	Branch string `yaml:"branch" mapstructure:"branch"`

	// Submodules enables git submodule init/update after checkout.
	Submodules *bool `yaml:"submodules,omitempty" mapstructure:"submodules"`

	// Domain is the WordPress site domain used for dump/load substitution and cache purges.
	Domain string `yaml:"domain" mapstructure:"domain"`

	// Prefix is prepended to every php invocation (e.g. "sudo -u www-data").
	Prefix string `yaml:"prefix" mapstructure:"prefix"`

	// ScriptsDir holds the wp-scripts php helpers, relative to Path.
	ScriptsDir string `yaml:"scripts_dir" mapstructure:"scripts_dir"`

	// FixPerms enables the fix_perms recipe.
	FixPerms *bool `yaml:"fix_perms,omitempty" mapstructure:"fix_perms"`

	// SyncSource is the shared NFS checkout app servers rsync from.
	SyncSource string `yaml:"sync_source" mapstructure:"sync_source"`

	// CacheServers receive PURGE requests.
	CacheServers []string `yaml:"cache_servers" mapstructure:"cache_servers"`

	DB DBSettings `yaml:"db" mapstructure:"db"`
}

// DBSettings holds MySQL connection parameters.
type DBSettings struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Name     string `yaml:"name" mapstructure:"name"`
	RootUser string `yaml:"root_user" mapstructure:"root_user"`
	// RootPass is optional; when empty it is requested once per run.
	RootPass string `yaml:"root_pass" mapstructure:"root_pass"`
	WPUser   string `yaml:"wp_user" mapstructure:"wp_user"`
	WPPass   string `yaml:"wp_pass" mapstructure:"wp_pass"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:      CurrentConfigVersion,
		Strategy:     StrategyGit,
		StableBranch: "stable",
		Defaults: Settings{
			ScriptsDir:   "tools/wp-scripts",
			SyncSource:   "/mnt/apps/sites/${PROJECT}",
			CacheServers: []string{"lb1", "lb2", "lb3"},
			DB: DBSettings{
				Host:     "localhost",
				RootUser: "root",
			},
		},
		Targets: make(map[string]Settings),
	}
}

// Merge returns base with every non-zero field of over applied on top.
func Merge(base, over Settings) Settings {
	out := base
	if len(over.Hosts) > 0 {
		out.Hosts = append([]string(nil), over.Hosts...)
	}
	if over.Local != nil {
		out.Local = over.Local
	}
	out.Path = pick(over.Path, base.Path)
	out.Branch = pick(over.Branch, base.Branch)
	if over.Submodules != nil {
		out.Submodules = over.Submodules
	}
	out.Domain = pick(over.Domain, base.Domain)
	out.Prefix = pick(over.Prefix, base.Prefix)
	out.ScriptsDir = pick(over.ScriptsDir, base.ScriptsDir)
	if over.FixPerms != nil {
		out.FixPerms = over.FixPerms
	}
	out.SyncSource = pick(over.SyncSource, base.SyncSource)
	if len(over.CacheServers) > 0 {
		out.CacheServers = append([]string(nil), over.CacheServers...)
	}
	out.DB = DBSettings{
		Host:     pick(over.DB.Host, base.DB.Host),
		Name:     pick(over.DB.Name, base.DB.Name),
		RootUser: pick(over.DB.RootUser, base.DB.RootUser),
		RootPass: pick(over.DB.RootPass, base.DB.RootPass),
		WPUser:   pick(over.DB.WPUser, base.DB.WPUser),
		WPPass:   pick(over.DB.WPPass, base.DB.WPPass),
	}
	return out
}

func pick(over, base string) string {
	if over != "" {
		return over
	}
	return base
}

// Bool dereferences an optional toggle.
func Bool(b *bool) bool {
	return b != nil && *b
}
