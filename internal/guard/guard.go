// Package guard gates destructive and production-affecting steps behind
// operator confirmation.
package guard

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/wpd/internal/errors"
	"golang.org/x/term"
)

// Confirmer asks the operator questions. Implementations block until answered.
type Confirmer interface {
	// Confirm asks a yes/no question. Anything but an explicit yes is false.
	Confirm(prompt string) (bool, error)
	// Ask asks for free text, returning def when the answer is empty.
	Ask(prompt, def string) (string, error)
}

// NewTerminal returns a Confirmer for the process's stdin: huh forms when it
// is a terminal, plain line reads otherwise.
func NewTerminal(out io.Writer) Confirmer {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return huhConfirmer{}
	}
	return NewLines(os.Stdin, out)
}

type huhConfirmer struct{}

func (huhConfirmer) Confirm(prompt string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrDeclined, "Prompt cancelled", "Nothing was changed.")
	}
	return ok, nil
}

func (huhConfirmer) Ask(prompt, def string) (string, error) {
	var answer string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(prompt).
				Placeholder(def).
				Value(&answer),
		),
	)
	if err := form.Run(); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrDeclined, "Prompt cancelled", "Nothing was changed.")
	}
	if strings.TrimSpace(answer) == "" {
		return def, nil
	}
	return answer, nil
}

// Lines reads answers one line at a time, for pipes and tests.
type Lines struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewLines creates a line-based Confirmer reading from r and prompting on w.
func NewLines(r io.Reader, w io.Writer) *Lines {
	if w == nil {
		w = io.Discard
	}
	return &Lines{in: bufio.NewReader(r), out: w}
}

func (l *Lines) readLine() (string, error) {
	line, err := l.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm implements Confirmer.
func (l *Lines) Confirm(prompt string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.out, "%s [y/N] ", prompt)
	answer, err := l.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Ask implements Confirmer.
func (l *Lines) Ask(prompt, def string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.out, "%s [%s] ", prompt, def)
	answer, err := l.readLine()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return def, nil
	}
	return answer, nil
}

// AutoYes accepts every Confirm (for --yes) and passes Ask through, so
// free-text gates like ConfirmBranch still need an answer.
type AutoYes struct {
	Next Confirmer
}

// Confirm implements Confirmer.
func (AutoYes) Confirm(string) (bool, error) { return true, nil }

// Ask implements Confirmer.
func (a AutoYes) Ask(prompt, def string) (string, error) { return a.Next.Ask(prompt, def) }

// Require returns a DECLINED error unless the operator confirms prompt.
func Require(c Confirmer, prompt string) error {
	ok, err := c.Confirm(prompt)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Declined("Stopped at: " + firstLine(prompt))
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
