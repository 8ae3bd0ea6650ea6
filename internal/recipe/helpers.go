package recipe

import (
	"context"
	"path"
	"strings"

	"github.com/rileyhilliard/wpd/internal/guard"
	"github.com/rileyhilliard/wpd/internal/shell"
	"github.com/rileyhilliard/wpd/internal/target"
	"github.com/rileyhilliard/wpd/internal/ui"
)

// Run-scoped flags kept in the store so a gate asked on the first host is
// not asked again on the next.
const (
	keyBranchConfirmed = "_branch_confirmed"
	keyDestroyApproved = "_destroy_approved"
)

// branchProviders lists the commands that set gitbranch.
var branchProviders = []string{"stable", "master", "branch:<name>"}

func (r *Run) note(msg string) {
	ui.Note(r.out(), msg)
}

func (r *Run) warn(msg string) {
	ui.Warn(r.out(), msg)
}

// confirmBranch runs the production branch gate once per run.
func (r *Run) confirmBranch() error {
	if r.Store.Bool(keyBranchConfirmed) {
		return nil
	}
	err := guard.ConfirmBranch(r.Confirm,
		r.Store.Target(),
		r.Store.StringOr(target.KeyBranch, ""),
		r.Store.StringOr(target.KeyStableBranch, "stable"))
	if err != nil {
		return err
	}
	r.Store.Set(keyBranchConfirmed, true)
	return nil
}

// inPath runs fn with the target's checkout as the working directory.
// Recipes called from inside another recipe's inPath reuse the scope.
func (r *Run) inPath(fn func(p string) error) error {
	p, err := r.Store.String(target.KeyPath)
	if err != nil {
		return err
	}
	if r.Shell.Dir() == p {
		return fn(p)
	}
	return r.Shell.InDir(p, func() error { return fn(p) })
}

// php builds an invocation of a provisioning script, prefixed with the
// target's command prefix (e.g. "sudo -u www-data").
func (r *Run) php(script string, args ...string) shell.Command {
	words := strings.Fields(r.Store.StringOr(target.KeyPrefix, ""))
	words = append(words, "php")
	c := shell.Cmd(words[0], words[1:]...)
	dir := r.Store.StringOr(target.KeyScriptsDir, "tools/wp-scripts")
	return c.Path(path.Join(dir, script)).Arg(args...)
}

// cluster broadcasts a shell snippet to every app server.
func cluster(snippet string) shell.Command {
	return shell.Cmd("run-for-cluster", "-t", "app", snippet)
}

func (r *Run) broadcast(ctx context.Context, snippet string) error {
	_, err := r.Shell.Run(ctx, cluster(snippet), shell.TolerateFailure())
	return err
}
