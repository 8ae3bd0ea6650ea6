// Package util provides quoting and formatting helpers shared across wpd.
package util

import "strings"

// shellSafe reports whether s can be passed to a POSIX shell without quoting.
func shellSafe(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("_@%+=:,./-", r):
		default:
			return false
		}
	}
	return true
}

// ShellQuote returns s in a form the shell treats as one literal word.
// Plain words are returned unchanged; anything else is wrapped in single
// quotes with embedded single quotes escaped.
func ShellQuote(s string) string {
	if shellSafe(s) {
		return s
	}
	// Replace ' with '\'' (end quote, escaped quote, start quote)
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

// ShellQuotePreserveTilde quotes a path for shell execution while preserving tilde expansion.
// For paths starting with ~/, the tilde is kept unquoted and the rest is quoted.
//
// Remote paths like ~/apache/site rely on the remote shell expanding ~.
func ShellQuotePreserveTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		return "~/" + ShellQuote(path[2:])
	}
	if path == "~" {
		return "~"
	}
	return ShellQuote(path)
}

// ShellJoin quotes each word and joins them with spaces.
func ShellJoin(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = ShellQuote(w)
	}
	return strings.Join(quoted, " ")
}
