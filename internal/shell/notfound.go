package shell

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rileyhilliard/wpd/internal/errors"
)

// commandNotFoundPatterns are regex patterns to detect "command not found" errors
// from various shells. These require exit code 127.
var commandNotFoundPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bash: (\S+): command not found`),
	regexp.MustCompile(`(?i)zsh: command not found: (\S+)`),
	regexp.MustCompile(`(?i)sh: \d+: (\S+): not found`),
	regexp.MustCompile(`(?i)-bash: (\S+): No such file or directory`),
	regexp.MustCompile(`(?i)(\S+): not found`),
	regexp.MustCompile(`(?i)(\S+): command not found`),
}

// IsCommandNotFound checks if the error output indicates a missing command.
// Returns the command name (if extractable) and whether it's a command-not-found error.
func IsCommandNotFound(stderr string, exitCode int) (string, bool) {
	// Exit code 127 is the standard for command not found
	if exitCode != 127 {
		return "", false
	}

	for _, pattern := range commandNotFoundPatterns {
		if matches := pattern.FindStringSubmatch(stderr); len(matches) > 1 {
			return matches[1], true
		}
	}

	// Exit code is 127 but couldn't extract command name
	return "", true
}

// failure builds the error for a command that exited non-zero. Missing
// programs get an install hint on top of the command failure.
func failure(host string, req Request, res Result, args []string) error {
	cmdErr := &errors.CommandFailedError{
		Command:  req.Display,
		Host:     host,
		ExitCode: res.ExitCode,
		Stderr:   res.Stderr,
	}

	name, notFound := IsCommandNotFound(res.Stderr, res.ExitCode)
	if !notFound {
		return cmdErr
	}
	if name == "" && len(args) > 0 {
		name = args[0]
	}
	if name == "" {
		name = strings.Fields(req.Display + " command")[0]
	}

	return errors.WrapWithCode(cmdErr, errors.ErrExec,
		fmt.Sprintf("'%s' not found in PATH on %s", name, host),
		fmt.Sprintf("Install '%s' on %s, or check the PATH of its non-interactive shell.", name, host))
}
