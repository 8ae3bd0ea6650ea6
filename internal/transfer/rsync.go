// Package transfer copies single files between the workstation and a
// target host with rsync over the system ssh.
package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/wpd/internal/errors"
	"github.com/rileyhilliard/wpd/internal/ui"
	"github.com/rileyhilliard/wpd/internal/util"
)

// LocalHost is the host label for workstation-only runs; transfers to it
// are plain local copies.
const LocalHost = "local"

// Transferer moves files to and from a host.
type Transferer interface {
	Put(ctx context.Context, host, localPath, remotePath string) error
	Get(ctx context.Context, host, remotePath, localPath string) error
}

// Rsync implements Transferer with the rsync binary.
type Rsync struct {
	// SSHConfigFile is passed to ssh with -F when set.
	SSHConfigFile string
	// Out receives the echoed command and rsync's output.
	Out    io.Writer
	DryRun bool
}

// FindRsync locates the rsync binary on the local system.
// Returns the full path to rsync or an error if not found.
func FindRsync() (string, error) {
	path, err := exec.LookPath("rsync")
	if err != nil {
		return "", errors.New(errors.ErrSync,
			"rsync isn't installed locally",
			"Grab it with: brew install rsync (macOS) or apt install rsync (Linux)")
	}
	return path, nil
}

// Put copies localPath to remotePath on host.
func (r *Rsync) Put(ctx context.Context, host, localPath, remotePath string) error {
	if _, err := os.Stat(localPath); err != nil {
		return errors.WrapWithCode(err, errors.ErrSync,
			fmt.Sprintf("Nothing to upload at %s", localPath),
			"Create it first, e.g. with wrap_media on your workstation.")
	}
	return r.run(ctx, host, r.buildArgs(host, localPath, remoteSpec(host, remotePath)))
}

// Get copies remotePath on host to localPath, creating its directory.
func (r *Rsync) Get(ctx context.Context, host, remotePath, localPath string) error {
	if dir := filepath.Dir(localPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WrapWithCode(err, errors.ErrSync,
				fmt.Sprintf("Couldn't create destination directory %s", dir),
				"Check file permissions.")
		}
	}
	return r.run(ctx, host, r.buildArgs(host, remoteSpec(host, remotePath), localPath))
}

// buildArgs returns the rsync arguments for copying src to dst via host.
func (r *Rsync) buildArgs(host, src, dst string) []string {
	args := []string{"-az"}
	if host != LocalHost {
		sshCmd := "ssh -o BatchMode=yes"
		if _, port := splitPort(host); port != "" {
			sshCmd += " -p " + port
		}
		if r.SSHConfigFile != "" {
			sshCmd += " -F " + util.ShellQuote(r.SSHConfigFile)
		}
		args = append(args, "-e", sshCmd)
	}
	return append(args, src, dst)
}

// remoteSpec renders host:path for rsync, or just path for local copies.
func remoteSpec(host, path string) string {
	if host == LocalHost {
		return path
	}
	h, _ := splitPort(host)
	return h + ":" + path
}

// splitPort separates a trailing :port from host.
func splitPort(host string) (string, string) {
	i := strings.LastIndex(host, ":")
	if i < 0 {
		return host, ""
	}
	port := host[i+1:]
	if port == "" {
		return host, ""
	}
	for _, r := range port {
		if r < '0' || r > '9' {
			return host, ""
		}
	}
	return host[:i], port
}

func (r *Rsync) run(ctx context.Context, host string, args []string) error {
	out := r.Out
	if out == nil {
		out = io.Discard
	}
	ui.Echo(out, host, "rsync", "rsync "+util.ShellJoin(args))
	if r.DryRun {
		return nil
	}

	rsyncPath, err := FindRsync()
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, rsyncPath, args...)
	cmd.Stdout = out
	cmd.Stderr = io.MultiWriter(&stderr, out)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return handleRsyncError(err, host, stderr.String())
	}
	return nil
}

// handleRsyncError wraps rsync exit errors with helpful messages.
func handleRsyncError(err error, hostName string, stderrOutput string) error {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return errors.WrapWithCode(err, errors.ErrSync,
			"rsync failed",
			"Try running rsync manually to diagnose")
	}

	if strings.Contains(stderrOutput, "No such file or directory") {
		return errors.WrapWithCode(err, errors.ErrSync,
			"Remote file or directory not found",
			"Check the path exists on "+hostName+" (put_media needs the data directory to exist).")
	}

	// rsync exit codes have specific meanings
	// See: https://download.samba.org/pub/rsync/rsync.1
	var msg, suggestion string
	switch exitErr.ExitCode() {
	case 1:
		msg = "rsync syntax or usage error"
		suggestion = "Check the paths for unusual characters"
	case 3:
		msg = "File selection error"
		suggestion = "Check that source paths exist and are readable"
	case 11:
		msg = "Error in file I/O"
		suggestion = "Check disk space and file permissions on both local and remote"
	case 12:
		msg = "Error in rsync protocol data stream"
		suggestion = "This may indicate a corrupted transfer, try again"
	case 23:
		msg = "Partial transfer due to error"
		suggestion = "Some files may have permission issues, check the output above"
	case 255:
		msg = fmt.Sprintf("SSH connection to '%s' failed", hostName)
		suggestion = "Check that the host is reachable: ssh " + hostName
	default:
		msg = fmt.Sprintf("rsync exited with code %d", exitErr.ExitCode())
		suggestion = "Check the output above for specific error details"
	}

	return errors.WrapWithCode(err, errors.ErrSync, msg, suggestion)
}
