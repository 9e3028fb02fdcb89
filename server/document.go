package server

import (
	"strings"

	"github.com/wilc-lang/wilc/compiler"
	"github.com/wilc-lang/wilc/vm"
)

// docLine is one instruction line of an open document.
type docLine struct {
	line     int
	column   int // column of the mnemonic
	mnemonic string
	args     []docArg
}

// docArg is one raw argument token with its column.
type docArg struct {
	text   string
	column int
}

// scanDocument splits a document into instruction lines. Lines whose
// arguments fail to parse are still returned; only the raw tokens are used.
func scanDocument(text string) []docLine {
	var out []docLine
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if n == 0 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		mnemonic, column, rest := compiler.SplitMnemonic(line)
		if mnemonic == "" {
			continue
		}
		dl := docLine{line: n, column: column, mnemonic: mnemonic}

		offset := column + len(mnemonic)
		for _, tok := range compiler.SplitArgs(rest) {
			idx := strings.Index(line[offset:], tok)
			if idx < 0 {
				break
			}
			dl.args = append(dl.args, docArg{text: tok, column: offset + idx})
			offset += idx + len(tok)
		}
		out = append(out, dl)
	}
	return out
}

// binding is a name that some line of the document writes.
type binding struct {
	name  string
	label bool
	line  docLine
	arg   docArg
}

// bindings returns every name written by a Name-typed parameter, in
// document order. The same name may appear more than once.
func bindings(lines []docLine) []binding {
	var out []binding
	for _, dl := range lines {
		op, ok := vm.LookupMnemonic(dl.mnemonic)
		if !ok {
			continue
		}
		params := op.Params()
		for i, arg := range dl.args {
			if i >= len(params) || params[i] != vm.TypeName {
				continue
			}
			out = append(out, binding{
				name:  arg.text,
				label: op == vm.OpLabel,
				line:  dl,
				arg:   arg,
			})
		}
	}
	return out
}
