package util

import "strings"

// SedPattern escapes s for use as a literal basic regular expression in a
// sed s/// command using / as the delimiter.
func SedPattern(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\/.*[]^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SedReplacement escapes s for use as the literal replacement part of a sed
// s/// command using / as the delimiter.
func SedReplacement(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\/&`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SedSubstitute builds a global literal substitution expression s/from/to/g.
func SedSubstitute(from, to string) string {
	return "s/" + SedPattern(from) + "/" + SedReplacement(to) + "/g"
}

// SQLString renders s as a single-quoted MySQL string literal.
func SQLString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

// SQLIdent renders s as a backtick-quoted MySQL identifier.
func SQLIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}
