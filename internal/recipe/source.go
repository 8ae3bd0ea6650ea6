package recipe

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rileyhilliard/wpd/internal/config"
	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/rileyhilliard/wpd/internal/shell"
	"github.com/rileyhilliard/wpd/internal/target"
)

// TagDateLayout is the yy.mm.dd prefix of release tags.
const TagDateLayout = "06.01.02"

// GitCloneRepo clones the repository into path. An existing checkout makes
// git fail, which is tolerated.
func GitCloneRepo(ctx context.Context, r *Run, _ Args) error {
	g := r.Store.Reader()
	repo, p := g.String(target.KeyRepo), g.String(target.KeyPath)
	if err := g.Err(); err != nil {
		return err
	}
	_, err := r.Shell.Run(ctx, shell.Cmd("git", "clone", repo).Path(p), shell.TolerateFailure())
	return err
}

// GitCheckout moves the checkout to the selected branch and pulls it.
func GitCheckout(ctx context.Context, r *Run, _ Args) error {
	if err := r.Store.Require(target.KeyBranch, branchProviders...); err != nil {
		return err
	}
	branch := r.Store.StringOr(target.KeyBranch, "")

	return r.inPath(func(string) error {
		if branch != "master" {
			// Fails harmlessly when the local branch already exists.
			if _, err := r.Shell.Run(ctx, shell.Cmd("git", "checkout", "-b", branch, "origin/"+branch), shell.TolerateFailure()); err != nil {
				return err
			}
		}
		steps := []shell.Command{
			shell.Cmd("git", "checkout", branch),
			shell.Cmd("git", "pull", "origin", branch),
		}
		if r.Store.Bool(target.KeySubmodules) {
			steps = append(steps,
				shell.Cmd("git", "submodule", "init"),
				shell.Cmd("git", "submodule", "update", "--recursive"))
		}
		for _, c := range steps {
			if _, err := r.Shell.Run(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
}

// SVNCheckout updates an existing working copy at path or checks one out.
func SVNCheckout(ctx context.Context, r *Run, _ Args) error {
	g := r.Store.Reader()
	repo, p := g.String(target.KeyRepo), g.String(target.KeyPath)
	if err := g.Err(); err != nil {
		return err
	}

	res, err := r.Shell.Run(ctx, shell.Cmd("test", "-d").Path(p+"/.svn"), shell.TolerateFailure(), shell.Capture())
	if err != nil {
		return err
	}
	if res.ExitCode == 0 && !r.Shell.DryRun() {
		return r.Shell.InDir(p, func() error {
			_, err := r.Shell.Run(ctx, shell.Cmd("svn", "update"))
			return err
		})
	}
	_, err = r.Shell.Run(ctx, shell.Cmd("svn", "checkout", repo).Path(p))
	return err
}

// Setup creates the site checkout with the project's source strategy.
func Setup(ctx context.Context, r *Run, args Args) error {
	if err := r.confirmBranch(); err != nil {
		return err
	}
	if r.Store.StringOr(target.KeyStrategy, config.StrategyGit) == config.StrategySVN {
		return SVNCheckout(ctx, r, args)
	}
	if err := GitCloneRepo(ctx, r, args); err != nil {
		return err
	}
	return GitCheckout(ctx, r, args)
}

// Deploy updates the checkout and pushes it out to the app servers.
func Deploy(ctx context.Context, r *Run, args Args) error {
	if err := r.confirmBranch(); err != nil {
		return err
	}
	if err := r.Store.RequireTarget(Deployed...); err != nil {
		return err
	}
	if r.Store.StringOr(target.KeyStrategy, config.StrategyGit) == config.StrategySVN {
		if err := SVNCheckout(ctx, r, args); err != nil {
			return err
		}
	} else if err := GitCheckout(ctx, r, args); err != nil {
		return err
	}
	return SyncAppServers(ctx, r, args)
}

// Stable selects the project's stable branch.
func Stable(_ context.Context, r *Run, _ Args) error {
	r.Store.Set(target.KeyBranch, r.Store.StringOr(target.KeyStableBranch, "stable"))
	return nil
}

// Master selects the master branch.
func Master(_ context.Context, r *Run, _ Args) error {
	r.Store.Set(target.KeyBranch, "master")
	return nil
}

// Branch selects the branch named by its first argument.
func Branch(_ context.Context, r *Run, args Args) error {
	name, err := args.require("branch", 0, "name")
	if err != nil {
		return err
	}
	if strings.HasPrefix(name, "-") {
		return errors.Configuration(fmt.Sprintf("'%s' is not a branch name", name), "Branch names cannot start with '-'.")
	}
	r.Store.Set(target.KeyBranch, name)
	return nil
}

// GitTagStable tags HEAD as yy.mm.dd-N, with N one past the highest tag
// already made today, and pushes the tags.
func GitTagStable(ctx context.Context, r *Run, _ Args) error {
	today := r.now().Format(TagDateLayout)

	r.note("Checking for tags...")
	res, err := r.Shell.Local(ctx, shell.Cmd("git", "tag", "-l", today+"-*"), shell.Capture(), shell.TolerateFailure())
	if err != nil {
		return err
	}

	tag, found := NextTag(today, res.Stdout)
	r.log().Debug("existing tags for %s: %q", today, res.Stdout)
	if found {
		r.note(fmt.Sprintf("Found tags for today's date. Incrementing -- tagging with %s.", tag))
	} else {
		r.note(fmt.Sprintf("Found no tags for today. Tagging with %s.", tag))
	}

	if _, err := r.Shell.Local(ctx, shell.Cmd("git", "tag", tag)); err != nil {
		return err
	}
	_, err = r.Shell.Local(ctx, shell.Cmd("git", "push", "--tags"))
	return err
}

// NextTag picks the next release tag for the day from `git tag -l` output.
// Lines that are not <today>-<number> are ignored. found reports whether any
// tag for the day existed.
func NextTag(today, listing string) (tag string, found bool) {
	var seqs []int
	for _, line := range strings.Split(listing, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), today+"-")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			continue
		}
		seqs = append(seqs, n)
	}
	if len(seqs) == 0 {
		return today + "-0", false
	}
	sort.Ints(seqs)
	return fmt.Sprintf("%s-%d", today, seqs[len(seqs)-1]+1), true
}

// InstallApacheConf installs apache/<settings>-apache.conf and reloads apache
// here and across the cluster.
func InstallApacheConf(ctx context.Context, r *Run, _ Args) error {
	return r.installConf(ctx, "apache", "apache2", true)
}

// InstallNginxConf installs apache/<settings>-nginx.conf and reloads nginx
// across the cluster.
func InstallNginxConf(ctx context.Context, r *Run, _ Args) error {
	return r.installConf(ctx, "nginx", "nginx", false)
}

func (r *Run) installConf(ctx context.Context, kind, service string, reloadHere bool) error {
	g := r.Store.Reader()
	settings, project := g.String(target.KeySettings), g.String(target.KeyProject)
	if err := g.Err(); err != nil {
		return errors.Wrap(err, "Installing the "+kind+" config needs a target")
	}

	return r.inPath(func(string) error {
		src := fmt.Sprintf("apache/%s-%s.conf", settings, kind)
		dst := fmt.Sprintf("~/%s/%s", kind, project)
		if _, err := r.Shell.Sudo(ctx, shell.Cmd("cp").Path(src).Path(dst)); err != nil {
			return err
		}
		reload := shell.Cmd("sudo", "service", service, "reload")
		if reloadHere {
			if _, err := r.Shell.Sudo(ctx, shell.Cmd("service", service, "reload")); err != nil {
				return err
			}
		}
		return r.broadcast(ctx, reload.Render())
	})
}
