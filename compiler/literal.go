package compiler

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/wilc-lang/wilc/vm"
)

var (
	integerPattern   = regexp.MustCompile(`^-?[0-9]+$`)
	listPattern      = regexp.MustCompile(`^\[\s*-?[0-9]+\s*(,\s*-?[0-9]+\s*)*\]$`)
	emptyListPattern = regexp.MustCompile(`^\[\s*\]$`)
)

// ParseLiteral converts one argument token into a Value. Rules are tried in
// order and the first match wins: integer, quoted string, integer list,
// empty list, name. pos is attached to the error when nothing matches.
func ParseLiteral(tok string, pos vm.Position) (vm.Value, error) {
	if integerPattern.MatchString(tok) {
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return vm.Value{}, parseErrorf(pos, ErrInvalidObject, "integer %s does not fit in 64 bits", tok)
		}
		return vm.IntValue(n), nil
	}

	if isQuoted(tok) {
		return vm.StringValue(tok[1 : len(tok)-1]), nil
	}

	if listPattern.MatchString(tok) {
		fields := strings.Split(tok[1:len(tok)-1], ",")
		items := make([]int64, len(fields))
		for i, f := range fields {
			n, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
			if err != nil {
				return vm.Value{}, parseErrorf(pos, ErrInvalidObject, "list element %s does not fit in 64 bits", strings.TrimSpace(f))
			}
			items[i] = n
		}
		return vm.ListValue(items...), nil
	}

	if emptyListPattern.MatchString(tok) {
		return vm.ListValue(), nil
	}

	if isWord(tok) {
		return vm.NameValue(tok), nil
	}

	return vm.Value{}, parseErrorf(pos, ErrInvalidObject, "failed to convert %s into an object", tok)
}

// isQuoted reports whether tok is exactly one double-quoted span.
func isQuoted(tok string) bool {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return false
	}
	return !strings.Contains(tok[1:len(tok)-1], `"`)
}

// isWord reports whether tok consists only of letters, digits and
// underscores.
func isWord(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
