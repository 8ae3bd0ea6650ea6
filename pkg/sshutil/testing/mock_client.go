// Package testing provides an in-memory SSH client for tests.
package testing

import (
	"context"
	"errors"
	"io"
	"regexp"
	"sync"

	"github.com/rileyhilliard/wpd/pkg/sshutil"
)

// CommandResponse defines a canned response for a command pattern.
type CommandResponse struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
}

type rule struct {
	pattern *regexp.Regexp
	resp    CommandResponse
}

// MockClient simulates an SSH connection. It records every command it is
// asked to run and answers from registered responses; unmatched commands
// succeed with no output.
type MockClient struct {
	mu       sync.Mutex
	host     string
	closed   bool
	rules    []rule
	commands []string
}

var _ sshutil.SSHClient = (*MockClient)(nil)

// NewMockClient creates a mock SSH client for host.
func NewMockClient(host string) *MockClient {
	return &MockClient{host: host}
}

// SetCommandResponse registers a response for commands matching the regex
// pattern. Later registrations take precedence over earlier ones.
func (m *MockClient) SetCommandResponse(pattern string, resp CommandResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append([]rule{{pattern: regexp.MustCompile(pattern), resp: resp}}, m.rules...)
}

// Commands returns the commands executed so far, in order.
func (m *MockClient) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

// Closed reports whether Close was called.
func (m *MockClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Exec records cmd and returns the matching canned response.
func (m *MockClient) Exec(cmd string) (stdout, stderr []byte, exitCode int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, -1, errors.New("connection closed")
	}

	m.commands = append(m.commands, cmd)
	for _, r := range m.rules {
		if r.pattern.MatchString(cmd) {
			return r.resp.Stdout, r.resp.Stderr, r.resp.ExitCode, r.resp.Error
		}
	}
	return nil, nil, 0, nil
}

// ExecStreamContext runs a command and writes output to the provided writers.
func (m *MockClient) ExecStreamContext(ctx context.Context, cmd string, stdout, stderr io.Writer) (exitCode int, err error) {
	select {
	case <-ctx.Done():
		return 130, ctx.Err()
	default:
	}

	out, errOut, code, execErr := m.Exec(cmd)
	if execErr != nil {
		return -1, execErr
	}

	if stdout != nil && len(out) > 0 {
		_, _ = stdout.Write(out)
	}
	if stderr != nil && len(errOut) > 0 {
		_, _ = stderr.Write(errOut)
	}

	return code, nil
}

// Close marks the connection as closed.
func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// GetHost returns the host name.
func (m *MockClient) GetHost() string {
	return m.host
}
