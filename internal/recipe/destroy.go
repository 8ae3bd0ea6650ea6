package recipe

import (
	"context"
	"fmt"

	"github.com/rileyhilliard/wpd/internal/guard"
	"github.com/rileyhilliard/wpd/internal/shell"
	"github.com/rileyhilliard/wpd/internal/target"
)

// ShivaTheDestroyer removes the site. On deployed targets the whole checkout
// goes; elsewhere only the generated config is removed. The database is
// dropped either way.
func ShivaTheDestroyer(ctx context.Context, r *Run, args Args) error {
	if !r.Store.Bool(keyDestroyApproved) {
		where := r.Store.Target()
		if where == "" {
			where = "this machine"
		}
		prompt := fmt.Sprintf("This removes the %s site and drops its database on %s.\nContinue?",
			r.Store.StringOr(target.KeyProject, "current"), where)
		if err := guard.Require(r.Confirm, prompt); err != nil {
			return err
		}
		r.Store.Set(keyDestroyApproved, true)
	}

	if r.Store.RequireTarget(Deployed...) == nil {
		p, err := r.Store.String(target.KeyPath)
		if err != nil {
			return err
		}
		if _, err := r.Shell.Run(ctx, shell.Cmd("rm", "-Rf").Path(p)); err != nil {
			return err
		}
		return DestroyDB(ctx, r, args)
	}

	remove := func() error {
		for _, f := range []string{".htaccess", "wp-config.php"} {
			if _, err := r.Shell.Run(ctx, shell.Cmd("rm", f), shell.TolerateFailure()); err != nil {
				return err
			}
		}
		return nil
	}
	var err error
	if r.Store.Has(target.KeyPath) {
		err = r.inPath(func(string) error { return remove() })
	} else {
		err = remove()
	}
	if err != nil {
		return err
	}
	return DestroyDB(ctx, r, args)
}
