// Package testing provides a scripted Executor for recipe tests.
package testing

import (
	"context"
	"io"
	"regexp"
	"sync"

	"github.com/rileyhilliard/wpd/internal/shell"
)

// Responder computes a result for the n-th (zero-based) call matching a rule.
type Responder func(call int, req shell.Request) shell.Result

type rule struct {
	pattern *regexp.Regexp
	respond Responder
	calls   int
}

// Recorder records every request and answers from registered rules.
// Unmatched commands succeed with no output.
type Recorder struct {
	mu       sync.Mutex
	rules    []*rule
	requests []shell.Request
}

var _ shell.Executor = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// On answers commands matching the regex pattern with res. Later
// registrations take precedence over earlier ones.
func (r *Recorder) On(pattern string, res shell.Result) {
	r.OnFunc(pattern, func(int, shell.Request) shell.Result { return res })
}

// OnFunc answers commands matching pattern with fn.
func (r *Recorder) OnFunc(pattern string, fn Responder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append([]*rule{{pattern: regexp.MustCompile(pattern), respond: fn}}, r.rules...)
}

// Execute implements shell.Executor.
func (r *Recorder) Execute(ctx context.Context, req shell.Request) (shell.Result, error) {
	if err := ctx.Err(); err != nil {
		return shell.Result{ExitCode: 130}, err
	}

	r.mu.Lock()
	r.requests = append(r.requests, req)
	var res shell.Result
	for _, rl := range r.rules {
		if rl.pattern.MatchString(req.Command) {
			res = rl.respond(rl.calls, req)
			rl.calls++
			break
		}
	}
	r.mu.Unlock()

	write(req.Stdout, res.Stdout)
	write(req.Stderr, res.Stderr)
	return res, nil
}

func write(w io.Writer, s string) {
	if w != nil && s != "" {
		_, _ = io.WriteString(w, s)
	}
}

// Requests returns the recorded requests in order.
func (r *Recorder) Requests() []shell.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shell.Request(nil), r.requests...)
}

// Commands returns the rendered commands in order.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.requests))
	for i, req := range r.requests {
		out[i] = req.Command
	}
	return out
}

// Reset clears recorded requests but keeps rules.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = nil
}

// Mode returns a remote-style shell.Mode for host that records into r.
// Elevated calls go through shell.SudoExecutor, as they do over SSH.
func (r *Recorder) Mode(host string) shell.Mode {
	return shell.Mode{Host: host, Run: r, Sudo: &shell.SudoExecutor{Next: r}, Local: r}
}

// LocalMode returns a workstation shell.Mode that records into r.
func (r *Recorder) LocalMode() shell.Mode {
	return shell.Mode{Host: shell.LocalHost, Run: r, Sudo: r, Local: r}
}
