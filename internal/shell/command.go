package shell

import (
	"sort"
	"strings"

	"github.com/rileyhilliard/wpd/internal/util"
)

// Mask replaces secret values in displayed commands.
const Mask = "****"

// PipefailShell prefixes rendered pipelines of two or more commands.
const PipefailShell = "bash -o pipefail -c"

type wordKind int

const (
	kindLiteral wordKind = iota
	kindPath             // quoted, but a leading ~/ stays unquoted for the target shell
	kindGlob             // passed through unquoted so the shell expands it
)

type word struct {
	text string
	kind wordKind
}

// Script is anything the executors can run: a single Command or a Pipeline.
type Script interface {
	// Render returns the shell text to execute, secrets included.
	Render() string
	// Display returns the text shown to the operator, secrets masked.
	Display() string
}

// Command is one program invocation built from structured arguments.
// Values are quoted when rendered, so nothing passed here is interpreted by
// the shell except words added with Glob.
type Command struct {
	words   []word
	env     [][2]string
	stdin   string
	secrets []string
}

// Cmd creates a command running name with literal args.
func Cmd(name string, args ...string) Command {
	c := Command{}
	c.words = append(c.words, word{text: name})
	for _, a := range args {
		c.words = append(c.words, word{text: a})
	}
	return c
}

func (c Command) clone() Command {
	out := c
	out.words = append([]word(nil), c.words...)
	out.env = append([][2]string(nil), c.env...)
	out.secrets = append([]string(nil), c.secrets...)
	return out
}

// Arg appends literal arguments.
func (c Command) Arg(args ...string) Command {
	out := c.clone()
	for _, a := range args {
		out.words = append(out.words, word{text: a})
	}
	return out
}

// Path appends a filesystem path. A leading ~/ is left for the shell to expand.
func (c Command) Path(p string) Command {
	out := c.clone()
	out.words = append(out.words, word{text: p, kind: kindPath})
	return out
}

// Glob appends a shell pattern that is expanded by the shell on the target.
// Only use it with patterns written in recipes, never with settings values.
func (c Command) Glob(pattern string) Command {
	out := c.clone()
	out.words = append(out.words, word{text: pattern, kind: kindGlob})
	return out
}

// Env sets an environment variable for the command. Its value is always
// masked in Display.
func (c Command) Env(key, value string) Command {
	out := c.clone()
	out.env = append(out.env, [2]string{key, value})
	if value != "" {
		out.secrets = append(out.secrets, value)
	}
	return out
}

// Input feeds text to the command's standard input.
func (c Command) Input(text string) Command {
	out := c.clone()
	out.stdin = text
	return out
}

// Redact marks values that must be masked wherever they appear in Display.
func (c Command) Redact(values ...string) Command {
	out := c.clone()
	for _, v := range values {
		if v != "" {
			out.secrets = append(out.secrets, v)
		}
	}
	return out
}

// Args returns the unquoted argument words, program name first.
func (c Command) Args() []string {
	out := make([]string, len(c.words))
	for i, w := range c.words {
		out[i] = w.text
	}
	return out
}

// Render implements Script.
func (c Command) Render() string { return c.render(false) }

// Display implements Script.
func (c Command) Display() string { return c.render(true) }

func (c Command) render(mask bool) string {
	hide := func(s string) string {
		if !mask {
			return s
		}
		return redact(s, c.secrets)
	}

	var parts []string
	if c.stdin != "" {
		parts = append(parts, "printf '%s\\n'", util.ShellQuote(hide(c.stdin)), "|")
	}

	env := append([][2]string(nil), c.env...)
	sort.SliceStable(env, func(i, j int) bool { return env[i][0] < env[j][0] })
	for _, kv := range env {
		if mask && kv[1] != "" {
			parts = append(parts, kv[0]+"="+Mask)
			continue
		}
		parts = append(parts, kv[0]+"="+util.ShellQuote(kv[1]))
	}

	for _, w := range c.words {
		text := hide(w.text)
		switch w.kind {
		case kindGlob:
			parts = append(parts, text)
		case kindPath:
			parts = append(parts, util.ShellQuotePreserveTilde(text))
		default:
			parts = append(parts, util.ShellQuote(text))
		}
	}
	return strings.Join(parts, " ")
}

func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, Mask)
	}
	return s
}

// Pipeline connects commands with pipes, optionally redirecting the final
// command's output to a file. A multi-stage pipeline runs under bash with
// pipefail so a failing early stage fails the whole pipeline; Display shows
// the bare pipeline.
type Pipeline struct {
	Commands []Command
	// OutputFile receives the last command's stdout when set.
	OutputFile string
}

// Pipe creates a pipeline from cmds in order.
func Pipe(cmds ...Command) Pipeline {
	return Pipeline{Commands: cmds}
}

// To redirects the pipeline's output to file.
func (p Pipeline) To(file string) Pipeline {
	p.Commands = append([]Command(nil), p.Commands...)
	p.OutputFile = file
	return p
}

// Render implements Script.
func (p Pipeline) Render() string {
	out := p.join(Command.Render)
	if len(p.Commands) < 2 {
		return out
	}
	return PipefailShell + " " + util.ShellQuote(out)
}

// Display implements Script. Secrets from any stage are masked in every stage.
func (p Pipeline) Display() string {
	var secrets []string
	for _, c := range p.Commands {
		secrets = append(secrets, c.secrets...)
	}
	return p.join(func(c Command) string {
		return c.Redact(secrets...).Display()
	})
}

func (p Pipeline) join(render func(Command) string) string {
	parts := make([]string, len(p.Commands))
	for i, c := range p.Commands {
		parts[i] = render(c)
	}
	out := strings.Join(parts, " | ")
	if p.OutputFile != "" {
		out += " > " + util.ShellQuotePreserveTilde(p.OutputFile)
	}
	return out
}
