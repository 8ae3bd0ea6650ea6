// Package shell runs recipe commands on the workstation or a target host.
//
// Recipes build structured Commands and Pipelines and hand them to a Shell.
// The Shell decides where they run through its Mode, echoes the redacted
// form to the operator, scopes the working directory, and turns non-zero
// exits into errors unless the call tolerates failure.
package shell

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/rileyhilliard/wpd/internal/logger"
	"github.com/rileyhilliard/wpd/internal/ui"
	"github.com/rileyhilliard/wpd/pkg/sshutil"
)

// LocalHost labels commands run on the workstation.
const LocalHost = "local"

// Mode is the pair of execution strategies chosen once per host. Local is
// always the workstation, for commands like git tag that never run remotely.
type Mode struct {
	Host  string
	Run   Executor
	Sudo  Executor
	Local Executor
}

// LocalMode runs everything on the workstation. Elevation is a no-op here:
// sudo calls run as the operator, the same as plain calls.
func LocalMode() Mode {
	l := LocalExecutor{}
	return Mode{Host: LocalHost, Run: l, Sudo: l, Local: l}
}

// RemoteMode runs over client, with elevated calls wrapped in sudo.
func RemoteMode(client sshutil.SSHClient) Mode {
	r := &RemoteExecutor{Client: client}
	return Mode{
		Host:  client.GetHost(),
		Run:   r,
		Sudo:  &SudoExecutor{Next: r},
		Local: LocalExecutor{},
	}
}

// Options configure a Shell.
type Options struct {
	// Out receives echoed commands and streamed output. Defaults to io.Discard.
	Out io.Writer
	// Err receives streamed stderr. Defaults to Out.
	Err    io.Writer
	Logger logger.Logger
	// DryRun echoes commands without executing them.
	DryRun bool
}

// Shell executes scripts for one host with a scoped working directory.
// It is not safe for concurrent use.
type Shell struct {
	mode   Mode
	out    io.Writer
	errOut io.Writer
	log    logger.Logger
	dryRun bool
	dirs   []string
}

// New creates a Shell for mode.
func New(mode Mode, opts Options) *Shell {
	s := &Shell{mode: mode, out: opts.Out, errOut: opts.Err, log: opts.Logger, dryRun: opts.DryRun}
	if s.out == nil {
		s.out = io.Discard
	}
	if s.errOut == nil {
		s.errOut = s.out
	}
	if s.log == nil {
		s.log = logger.Noop()
	}
	return s
}

// Host returns the label of the host this shell targets.
func (s *Shell) Host() string { return s.mode.Host }

// IsLocal reports whether Run executes on the workstation.
func (s *Shell) IsLocal() bool { return s.mode.Host == LocalHost }

// DryRun reports whether commands are only echoed.
func (s *Shell) DryRun() bool { return s.dryRun }

// Out returns the operator output writer.
func (s *Shell) Out() io.Writer { return s.out }

// Option adjusts a single call.
type Option func(*callOpts)

type callOpts struct {
	tolerate bool
	capture  bool
	elevated bool
}

// TolerateFailure reports a non-zero exit in the Result instead of failing.
func TolerateFailure() Option { return func(o *callOpts) { o.tolerate = true } }

// Capture collects output without streaming it to the operator.
func Capture() Option { return func(o *callOpts) { o.capture = true } }

// Elevated runs the call with the Mode's Sudo executor.
func Elevated() Option { return func(o *callOpts) { o.elevated = true } }

// Run executes script on the target host in the current directory.
func (s *Shell) Run(ctx context.Context, script Script, opts ...Option) (Result, error) {
	o := callOpts{}
	for _, opt := range opts {
		opt(&o)
	}
	exec, verb := s.mode.Run, "run"
	if o.elevated {
		exec, verb = s.mode.Sudo, "sudo"
	}
	return s.execute(ctx, exec, s.mode.Host, verb, s.Dir(), script, o)
}

// Sudo executes script elevated on the target host.
func (s *Shell) Sudo(ctx context.Context, script Script, opts ...Option) (Result, error) {
	return s.Run(ctx, script, append(opts, Elevated())...)
}

// Local executes script on the workstation, ignoring the directory scope.
func (s *Shell) Local(ctx context.Context, script Script, opts ...Option) (Result, error) {
	o := callOpts{}
	for _, opt := range opts {
		opt(&o)
	}
	return s.execute(ctx, s.mode.Local, LocalHost, "local", "", script, o)
}

func (s *Shell) execute(ctx context.Context, exec Executor, host, verb, dir string, script Script, o callOpts) (Result, error) {
	req := Request{Command: script.Render(), Display: script.Display(), Dir: dir}
	ui.Echo(s.out, host, verb, displayWithDir(req))
	s.log.Debug("%s on %s (dir=%q)", verb, host, dir)

	if s.dryRun {
		return Result{}, nil
	}

	if !o.capture {
		req.Stdout = s.out
		req.Stderr = s.errOut
	}

	res, err := exec.Execute(ctx, req)
	if err != nil {
		return res, err
	}

	if res.Failed() {
		if o.tolerate {
			ui.Warn(s.out, fmt.Sprintf("[%s] exit %d tolerated: %s", host, res.ExitCode, req.Display))
			return res, nil
		}
		var args []string
		if c, ok := script.(Command); ok {
			args = c.Args()
		}
		return res, failure(host, req, res, args)
	}
	return res, nil
}

func displayWithDir(req Request) string {
	if req.Dir == "" {
		return req.Display
	}
	return "(in " + req.Dir + ") " + req.Display
}

// Dir returns the current scoped working directory, empty when unscoped.
func (s *Shell) Dir() string {
	if len(s.dirs) == 0 {
		return ""
	}
	return s.dirs[len(s.dirs)-1]
}

// InDir runs fn with dir as the working directory for Run and Sudo calls.
// Relative dirs nest under the current one. The previous directory is
// restored when fn returns, fails or panics; the process working directory
// is never changed.
func (s *Shell) InDir(dir string, fn func() error) error {
	if cur := s.Dir(); cur != "" && !strings.HasPrefix(dir, "/") && !strings.HasPrefix(dir, "~") {
		dir = path.Join(cur, dir)
	}
	s.dirs = append(s.dirs, dir)
	depth := len(s.dirs)
	defer func() { s.dirs = s.dirs[:depth-1] }()
	return fn()
}
