package compiler

import (
	"strings"

	"github.com/wilc-lang/wilc/vm"
)

// ---------------------------------------------------------------------------
// Tokenizer: splits one source line into mnemonic and argument tokens
// ---------------------------------------------------------------------------

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

// SplitMnemonic splits a source line into its mnemonic, the 0-based column
// where the mnemonic starts, and the argument text following it. A blank
// or comment-only line yields an empty mnemonic.
func SplitMnemonic(line string) (mnemonic string, column int, rest string) {
	i := 0
	for i < len(line) && isBlank(line[i]) {
		i++
	}
	if i == len(line) || line[i] == ';' {
		return "", i, ""
	}

	j := i
	for j < len(line) && !isBlank(line[j]) && line[j] != ';' {
		j++
	}
	if j < len(line) && line[j] == ';' {
		return line[i:j], i, ""
	}
	return line[i:j], i, line[j:]
}

// SplitArgs splits argument text into raw tokens. Whitespace separates
// tokens and an unquoted ';' ends the line. A token containing '"' or '['
// swallows every character, whitespace and ';' included, up to the
// matching '"' or ']'. An unterminated span absorbs the rest of the line.
func SplitArgs(text string) []string {
	var (
		tokens    []string
		current   strings.Builder
		skipUntil byte
	)
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

scan:
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case skipUntil != 0:
			current.WriteByte(c)
			if c == skipUntil {
				skipUntil = 0
			}
		case isBlank(c):
			flush()
		case c == ';':
			break scan
		default:
			switch c {
			case '"':
				skipUntil = '"'
			case '[':
				skipUntil = ']'
			}
			current.WriteByte(c)
		}
	}
	flush()
	return tokens
}

// Tokenize splits argument text and parses every token into a Value.
func Tokenize(text string, pos vm.Position) ([]vm.Value, error) {
	raw := SplitArgs(text)
	if len(raw) == 0 {
		return nil, nil
	}
	args := make([]vm.Value, len(raw))
	for i, tok := range raw {
		v, err := ParseLiteral(tok, pos)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}
