package dispatch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rileyhilliard/wpd/internal/credential"
	"github.com/rileyhilliard/wpd/internal/env"
	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/rileyhilliard/wpd/internal/guard"
	"github.com/rileyhilliard/wpd/internal/logger"
	"github.com/rileyhilliard/wpd/internal/recipe"
	"github.com/rileyhilliard/wpd/internal/shell"
	"github.com/rileyhilliard/wpd/internal/transfer"
	"github.com/rileyhilliard/wpd/internal/ui"
	"github.com/rileyhilliard/wpd/internal/util"
	"github.com/rileyhilliard/wpd/pkg/sshutil"
)

// Dialer opens an SSH connection to host.
type Dialer func(host string) (sshutil.SSHClient, error)

// Runner executes plans. Hosts are processed one at a time and the first
// failure stops the run.
type Runner struct {
	Confirm     guard.Confirmer
	Credentials credential.Provider
	Transfer    transfer.Transferer
	Dial        Dialer
	Out         io.Writer
	Err         io.Writer
	Logger      logger.Logger
	DryRun      bool
	Now         func() time.Time
}

// session holds the per-run state shared by all steps.
type session struct {
	r       *Runner
	store   *env.Store
	local   *shell.Shell
	shells  map[string]*shell.Shell
	clients []sshutil.SSHClient
	phases  *ui.PhaseDisplay
}

// Run executes every step of plan in order. Connections are opened the
// first time a host is needed and closed when Run returns.
func (r *Runner) Run(ctx context.Context, plan *Plan) error {
	s := &session{
		r:      r,
		store:  env.New(plan.Profile, r.Credentials),
		shells: map[string]*shell.Shell{},
		phases: ui.NewPhaseDisplay(r.out()),
	}
	defer s.close()

	s.local = shell.New(shell.LocalMode(), r.shellOptions())

	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.runStep(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}

func (r *Runner) log() logger.Logger {
	if r.Logger == nil {
		return logger.Noop()
	}
	return r.Logger
}

func (r *Runner) shellOptions() shell.Options {
	return shell.Options{Out: r.out(), Err: r.Err, Logger: r.log(), DryRun: r.DryRun}
}

func (s *session) runStep(ctx context.Context, step Step) error {
	rec := step.Recipe
	switch rec.Scope {
	case recipe.ScopeSetting:
		s.r.log().Debug("setting %s", step.Word)
		return rec.Run(ctx, s.runFor(nil), step.Args)
	case recipe.ScopeLocal:
		return s.phase(step.Word, func() error {
			return rec.Run(ctx, s.runFor(s.local), step.Args)
		})
	}

	hosts := s.store.Profile().ExecHosts()
	s.r.log().Debug("%s: %d %s", step.Word, len(hosts), util.Pluralize(len(hosts), "host", "hosts"))
	for _, host := range hosts {
		sh, err := s.shellFor(host)
		if err != nil {
			return err
		}
		name := step.Word
		if len(hosts) > 1 || host != shell.LocalHost {
			name = fmt.Sprintf("%s on %s", step.Word, host)
		}
		if err := s.phase(name, func() error { return rec.Run(ctx, s.runFor(sh), step.Args) }); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) phase(name string, fn func() error) error {
	s.phases.RenderStart(name)
	start := time.Now()
	if err := fn(); err != nil {
		s.phases.RenderFailed(name, time.Since(start), err)
		return err
	}
	s.phases.RenderSuccess(name, time.Since(start))
	return nil
}

func (s *session) runFor(sh *shell.Shell) *recipe.Run {
	return &recipe.Run{
		Store:    s.store,
		Shell:    sh,
		Confirm:  s.r.Confirm,
		Transfer: s.r.Transfer,
		Log:      s.r.log(),
		Out:      s.r.out(),
		Now:      s.r.Now,
	}
}

// shellFor returns the shell for host, dialing on first use. Dry runs never
// connect: their shells only echo.
func (s *session) shellFor(host string) (*shell.Shell, error) {
	if host == shell.LocalHost {
		return s.local, nil
	}
	if sh, ok := s.shells[host]; ok {
		return sh, nil
	}

	var mode shell.Mode
	if s.r.DryRun {
		mode = shell.LocalMode()
		mode.Host = host
	} else {
		if s.r.Dial == nil {
			return nil, errors.New(errors.ErrSSH,
				fmt.Sprintf("Can't connect to '%s'", host), "No SSH dialer is configured for this run.")
		}
		s.r.log().Debug("connecting to %s", host)
		client, err := s.r.Dial(host)
		if err != nil {
			return nil, err
		}
		s.clients = append(s.clients, client)
		mode = shell.RemoteMode(client)
	}

	sh := shell.New(mode, s.r.shellOptions())
	s.shells[host] = sh
	return sh, nil
}

func (s *session) close() {
	for _, c := range s.clients {
		if err := c.Close(); err != nil {
			s.r.log().Debug("closing %s: %v", c.GetHost(), err)
		}
	}
}
