package vm

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderPattern matches the shortest {...} run with at least one
// character between the braces.
var placeholderPattern = regexp.MustCompile(`\{.+?\}`)

var escapeReplacer = strings.NewReplacer(`\n`, "\n", `\r`, "\r", `\t`, "\t")

// Format expands {name} placeholders in text with the string form of each
// named binding, then resolves the \n, \r and \t escape sequences.
// An unbound placeholder name fails with ErrInvalidName.
func Format(text string, env Env) (string, error) {
	var sb strings.Builder
	last := 0
	for _, loc := range placeholderPattern.FindAllStringIndex(text, -1) {
		name := text[loc[0]+1 : loc[1]-1]
		v, ok := env.Lookup(name)
		if !ok {
			return "", fmt.Errorf("%w: name %s is not defined", ErrInvalidName, name)
		}
		sb.WriteString(text[last:loc[0]])
		sb.WriteString(v.String())
		last = loc[1]
	}
	sb.WriteString(text[last:])
	return escapeReplacer.Replace(sb.String()), nil
}
