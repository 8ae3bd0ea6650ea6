package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Vars are the values substituted into path-like settings.
type Vars struct {
	Project string
	User    string
	Home    string
}

// LocalVars returns substitution values for paths on the workstation.
func LocalVars(project string) Vars {
	return Vars{Project: project, User: getUser(), Home: getHome()}
}

// RemoteVars returns substitution values for paths on a remote host.
// ${HOME} becomes ~ so the remote shell expands it.
func RemoteVars(project string) Vars {
	return Vars{Project: project, User: getUser(), Home: "~"}
}

// Expand replaces ${PROJECT}, ${USER} and ${HOME} in s.
func Expand(s string, vars Vars) string {
	if s == "" || !strings.Contains(s, "${") {
		return s
	}
	return strings.NewReplacer(
		"${PROJECT}", vars.Project,
		"${USER}", vars.User,
		"${HOME}", vars.Home,
	).Replace(s)
}

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Use this for LOCAL paths only. Remote paths should keep ~ for the remote shell.
func ExpandTilde(path string) string {
	if path == "~" {
		return getHome()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(getHome(), path[2:])
	}
	return path
}

// getUser returns the current username for ${USER} expansion.
func getUser() string {
	for _, key := range []string{"USER", "LOGNAME", "USERNAME"} {
		if user := os.Getenv(key); user != "" {
			return user
		}
	}

	out, err := exec.Command("whoami").Output()
	if err != nil {
		return "user"
	}
	return strings.TrimSpace(string(out))
}

// CurrentUser returns the operator's username.
func CurrentUser() string {
	return getUser()
}

// getHome returns the home directory for ${HOME} expansion.
func getHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return "~"
}
