// Package recipe holds the deployment recipes and the registry that maps
// command names to them.
//
// Every recipe is a fixed sequence of shell calls parameterized by the run's
// env.Store. Recipes never pick an executor themselves; the Shell handed to
// them already targets the right host.
package recipe

import (
	"context"
	"io"
	"os/user"
	"sort"
	"time"

	"github.com/rileyhilliard/wpd/internal/env"
	"github.com/rileyhilliard/wpd/internal/guard"
	"github.com/rileyhilliard/wpd/internal/logger"
	"github.com/rileyhilliard/wpd/internal/shell"
	"github.com/rileyhilliard/wpd/internal/transfer"
)

// Scope says where and how often a recipe runs within one invocation.
type Scope int

const (
	// ScopeSetting recipes only change the store. They run once, without a shell.
	ScopeSetting Scope = iota
	// ScopeLocal recipes run once on the workstation.
	ScopeLocal
	// ScopeTarget recipes run once per target host.
	ScopeTarget
)

func (s Scope) String() string {
	switch s {
	case ScopeSetting:
		return "setting"
	case ScopeLocal:
		return "local"
	default:
		return "target"
	}
}

// Deployed is the target set for recipes that only make sense on managed servers.
var Deployed = []string{"production", "staging"}

// Recipe is one named command.
type Recipe struct {
	Name    string
	Summary string
	// Usage shows the argument form, e.g. "load_db[:slug]".
	Usage string
	Scope Scope
	// Targets restricts the recipe to these targets; empty means any.
	Targets []string
	Run     func(ctx context.Context, r *Run, args Args) error
}

// Run carries everything a recipe needs for one execution.
type Run struct {
	Store    *env.Store
	Shell    *shell.Shell
	Confirm  guard.Confirmer
	Transfer transfer.Transferer
	Log      logger.Logger
	// Out receives operator notes. Defaults to the shell's output.
	Out io.Writer
	// Now is the clock used for release tags.
	Now func() time.Time
	// User is the operator's login name.
	User string
}

func (r *Run) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	if r.Shell != nil {
		return r.Shell.Out()
	}
	return io.Discard
}

func (r *Run) log() logger.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logger.Noop()
}

func (r *Run) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Run) user() string {
	if r.User != "" {
		return r.User
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "nobody"
}

// Registry is the fixed set of recipes, keyed by name.
type Registry map[string]Recipe

// Lookup returns the recipe for name. Matching is exact and case-sensitive.
func (reg Registry) Lookup(name string) (Recipe, bool) {
	rec, ok := reg[name]
	return rec, ok
}

// Names returns all recipe names in sorted order.
func (reg Registry) Names() []string {
	names := make([]string, 0, len(reg))
	for name := range reg {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sorted returns all recipes ordered by name.
func (reg Registry) Sorted() []Recipe {
	out := make([]Recipe, 0, len(reg))
	for _, name := range reg.Names() {
		out = append(out, reg[name])
	}
	return out
}

// Default builds the registry used by the CLI.
func Default() Registry {
	reg := Registry{}
	for _, rec := range []Recipe{
		// source
		{Name: "git_clone_repo", Summary: "Do the initial clone of the git repository", Scope: ScopeTarget, Run: GitCloneRepo},
		{Name: "git_checkout", Summary: "Pull the latest code on the selected branch", Scope: ScopeTarget, Run: GitCheckout},
		{Name: "svn_checkout", Summary: "Check out or update the svn working copy", Scope: ScopeTarget, Run: SVNCheckout},
		{Name: "setup", Summary: "Set up the site checkout", Scope: ScopeTarget, Run: Setup},
		{Name: "deploy", Summary: "Deploy new code to the site", Scope: ScopeTarget, Targets: Deployed, Run: Deploy},
		{Name: "stable", Summary: "Select the stable branch", Scope: ScopeSetting, Run: Stable},
		{Name: "master", Summary: "Select the master branch", Scope: ScopeSetting, Run: Master},
		{Name: "branch", Summary: "Select a branch by name", Usage: "branch:<name>", Scope: ScopeSetting, Run: Branch},
		{Name: "git_tag_stable", Summary: "Tag HEAD with today's release number and push tags", Scope: ScopeLocal, Run: GitTagStable},
		{Name: "install_apache_conf", Summary: "Install the apache config and reload apache", Scope: ScopeTarget, Run: InstallApacheConf},
		{Name: "install_nginx_conf", Summary: "Install the nginx config and reload nginx", Scope: ScopeTarget, Run: InstallNginxConf},

		// data
		{Name: "bootstrap", Summary: "Install requirements and set up WordPress", Scope: ScopeTarget, Run: Bootstrap},
		{Name: "create_db", Summary: "Create the database and WordPress user", Scope: ScopeTarget, Run: CreateDB},
		{Name: "destroy_db", Summary: "Drop the database and WordPress user", Scope: ScopeTarget, Run: DestroyDB},
		{Name: "load_db", Summary: "Load data/<slug>.sql.bz2 into the database", Usage: "load_db[:slug]", Scope: ScopeTarget, Run: LoadDB},
		{Name: "dump_db", Summary: "Dump the database to data/<slug>.sql.bz2", Usage: "dump_db[:slug]", Scope: ScopeTarget, Run: DumpDB},
		{Name: "reload_db", Summary: "Recreate the database from a dump", Usage: "reload_db[:slug]", Scope: ScopeTarget, Run: ReloadDB},
		{Name: "destroy_attachments", Summary: "Remove uploaded blog attachments", Scope: ScopeTarget, Run: DestroyAttachments},
		{Name: "create_blogs", Summary: "Create child blogs until the script runs out", Scope: ScopeTarget, Run: CreateBlogs},

		// ops
		{Name: "force_nfs_refresh", Summary: "Make app servers re-read the NFS checkout", Scope: ScopeTarget, Run: ForceNFSRefresh},
		{Name: "sync_app_servers", Summary: "Rsync the shared checkout to every app server", Scope: ScopeTarget, Run: SyncAppServers},
		{Name: "fix_perms", Summary: "Make media group-writable by www-data", Scope: ScopeTarget, Run: FixPerms},
		{Name: "wrap_media", Summary: "Archive uploads into data/media.tgz", Scope: ScopeTarget, Run: WrapMedia},
		{Name: "unwrap_media", Summary: "Extract data/media.tgz", Scope: ScopeTarget, Run: UnwrapMedia},
		{Name: "put_media", Summary: "Upload data/media.tgz to the server", Scope: ScopeTarget, Targets: Deployed, Run: PutMedia},
		{Name: "get_media", Summary: "Download data/media.tgz from the server", Scope: ScopeTarget, Targets: Deployed, Run: GetMedia},
		{Name: "clear_cache", Summary: "Purge the front page from the caches", Scope: ScopeTarget, Targets: Deployed, Run: ClearCache},
		{Name: "clear_asset_cache", Summary: "Purge wp-content from the caches", Scope: ScopeTarget, Targets: Deployed, Run: ClearAssetCache},
		{Name: "clear_admin_cache", Summary: "Purge wp-admin from the caches", Scope: ScopeTarget, Targets: Deployed, Run: ClearAdminCache},
		{Name: "run_script", Summary: "Run a php script from the scripts directory", Usage: "run_script:<name>", Scope: ScopeTarget, Run: RunScript},
		{Name: "robots_setup", Summary: "Install the target's robots.txt", Scope: ScopeTarget, Targets: Deployed, Run: RobotsSetup},
		{Name: "runserver", Summary: "Start the local development server", Scope: ScopeLocal, Run: RunServer},

		// destroy
		{Name: "shiva_the_destroyer", Summary: "Remove the checkout and database", Scope: ScopeTarget, Run: ShivaTheDestroyer},
	} {
		if rec.Usage == "" {
			rec.Usage = rec.Name
		}
		reg[rec.Name] = rec
	}
	return reg
}
