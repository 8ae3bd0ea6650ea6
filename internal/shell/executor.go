package shell

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/rileyhilliard/wpd/internal/util"
	"github.com/rileyhilliard/wpd/pkg/sshutil"
)

// Request is a rendered command ready to execute.
type Request struct {
	// Command is the full shell text, secrets included. Never log it; use Display.
	Command string
	Display string
	// Dir is the working directory, empty for the executor's default.
	Dir string
	// Stdout and Stderr receive output as it arrives. Either may be nil.
	Stdout io.Writer
	Stderr io.Writer
}

// Result is the outcome of one executed command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Failed reports whether the command exited non-zero.
func (r Result) Failed() bool {
	return r.ExitCode != 0
}

// Executor runs a Request somewhere. A non-zero exit is not an error; the
// returned error means the command could not be run at all.
type Executor interface {
	Execute(ctx context.Context, req Request) (Result, error)
}

// buffers returns capture buffers and the writers to hand to the process,
// teeing into the request's streams when set.
func buffers(req Request) (stdout, stderr *bytes.Buffer, outW, errW io.Writer) {
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	outW, errW = io.Writer(stdout), io.Writer(stderr)
	if req.Stdout != nil {
		outW = io.MultiWriter(stdout, req.Stdout)
	}
	if req.Stderr != nil {
		errW = io.MultiWriter(stderr, req.Stderr)
	}
	return stdout, stderr, outW, errW
}

// LocalExecutor runs commands on the workstation through /bin/sh.
type LocalExecutor struct{}

// Execute implements Executor.
func (LocalExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	command := exec.CommandContext(ctx, "/bin/sh", "-c", req.Command)
	if req.Dir != "" {
		command.Dir = expandHome(req.Dir)
	}

	stdout, stderr, outW, errW := buffers(req)
	command.Stdout = outW
	command.Stderr = errW

	runErr := command.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctx.Err() != nil {
		res.ExitCode = 130
		return res, ctx.Err()
	}
	if runErr != nil {
		// Command ran but returned non-zero
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, errors.WrapWithCode(runErr, errors.ErrExec,
			"Couldn't run the command locally",
			"Make sure /bin/sh exists and the working directory is valid.")
	}
	return res, nil
}

func expandHome(dir string) string {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, strings.TrimPrefix(dir[1:], "/"))
}

// RemoteExecutor runs commands on a host over an SSH connection.
type RemoteExecutor struct {
	Client sshutil.SSHClient
}

// Execute implements Executor.
func (r *RemoteExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	cmd := req.Command
	if req.Dir != "" {
		cmd = "cd " + util.ShellQuotePreserveTilde(req.Dir) + " && " + cmd
	}

	stdout, stderr, outW, errW := buffers(req)
	code, err := r.Client.ExecStreamContext(ctx, cmd, outW, errW)
	res := Result{ExitCode: code, Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, errors.WrapWithCode(err, errors.ErrSSH,
			"Couldn't run the command on "+r.Client.GetHost(),
			"Check the SSH connection is still up and try again.")
	}
	return res, nil
}

// SudoExecutor runs commands through sudo on the wrapped executor.
type SudoExecutor struct {
	Next Executor
}

// Execute implements Executor.
func (s *SudoExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	req.Command = "sudo sh -c " + util.ShellQuote(req.Command)
	return s.Next.Execute(ctx, req)
}
