package dispatch

import (
	"strings"

	"github.com/rileyhilliard/wpd/internal/recipe"
)

// SplitWord splits "name:args" into the command name and its arguments.
func SplitWord(word string) (string, recipe.Args) {
	name, raw, ok := strings.Cut(word, ":")
	if !ok {
		return word, recipe.Args{}
	}
	return name, ParseArgs(raw)
}

// ParseArgs parses "a,b,key=value". A backslash escapes a following ',' or
// '='; any other backslash is kept as is. Values are never trimmed or coerced.
func ParseArgs(raw string) recipe.Args {
	args := recipe.Args{}
	if raw == "" {
		return args
	}
	for _, part := range splitEscaped(raw) {
		if part.eq > 0 {
			if args.Keyword == nil {
				args.Keyword = map[string]string{}
			}
			args.Keyword[part.text[:part.eq]] = part.text[part.eq+1:]
			continue
		}
		args.Positional = append(args.Positional, part.text)
	}
	return args
}

type argPart struct {
	text string
	// eq is the byte offset of the first unescaped '=', or -1.
	eq int
}

func splitEscaped(raw string) []argPart {
	var parts []argPart
	var b strings.Builder
	eq := -1
	flush := func() {
		parts = append(parts, argPart{text: b.String(), eq: eq})
		b.Reset()
		eq = -1
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw) && (raw[i+1] == ',' || raw[i+1] == '='):
			b.WriteByte(raw[i+1])
			i++
		case c == ',':
			flush()
		case c == '=' && eq < 0:
			eq = b.Len()
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	flush()
	return parts
}
