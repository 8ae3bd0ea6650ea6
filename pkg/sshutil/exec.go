package sshutil

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/rileyhilliard/wpd/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Exec runs a command on the remote host and returns the output.
// Exit code is -1 if the command couldn't be executed at all.
func (c *Client) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode, err = c.ExecStreamContext(context.Background(), cmd, &stdoutBuf, &stderrBuf)
	if err != nil {
		return nil, nil, exitCode, err
	}
	return stdoutBuf.Bytes(), stderrBuf.Bytes(), exitCode, nil
}

// ExecStreamContext runs a command and streams output to the provided writers.
// When ctx is cancelled the remote process gets SIGINT and the session is closed.
func (c *Client) ExecStreamContext(ctx context.Context, cmd string, stdout, stderr io.Writer) (exitCode int, err error) {
	session, err := c.Client.NewSession()
	if err != nil {
		return -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try again.")
	}
	defer session.Close()

	session.Stdout = stdout
	session.Stderr = stderr

	if err := session.Start(cmd); err != nil {
		return -1, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to start command on %s", c.Host),
			"Check that your user has a login shell on the remote host.")
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGINT)
		_ = session.Close()
		<-done
		return 130, ctx.Err()
	case err = <-done:
	}

	if err != nil {
		if exitErr, ok := err.(*ssh.ExitError); ok {
			return exitErr.ExitStatus(), nil
		}
		if _, ok := err.(*ssh.ExitMissingError); ok {
			return -1, errors.WrapWithCode(err, errors.ErrSSH,
				fmt.Sprintf("Lost the connection to %s mid-command", c.Host),
				"The remote command may still be running. Check the host before retrying.")
		}
		return -1, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to execute command on %s", c.Host),
			"Check if the command exists on the remote host.")
	}

	return 0, nil
}
