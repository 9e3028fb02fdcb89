package compiler

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/wilc-lang/wilc/vm"
)

var log = commonlog.GetLogger("wilc.compiler")

// ---------------------------------------------------------------------------
// Builder: assembles source units into a flat Program
// ---------------------------------------------------------------------------

// Builder assembles programs. Each call to Compile or CompileSource
// produces an independent Program; a Builder may be reused.
type Builder struct {
	libRoot string

	// active holds the absolute paths of the units currently being parsed,
	// outermost first. An import of any of them is a cycle.
	active []string
}

// NewBuilder creates a builder that resolves library imports under libRoot.
// An empty libRoot disables library lookups.
func NewBuilder(libRoot string) *Builder {
	return &Builder{libRoot: libRoot}
}

// Compile reads and assembles the script at path.
func Compile(path, libRoot string) (*vm.Program, error) {
	return NewBuilder(libRoot).Compile(path)
}

// CompileSource assembles src as though it had been read from path.
// Imports are still resolved relative to path.
func CompileSource(path string, src []byte, libRoot string) (*vm.Program, error) {
	return NewBuilder(libRoot).CompileSource(path, src)
}

// Compile reads and assembles the script at path.
func (b *Builder) Compile(path string) (*vm.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return b.CompileSource(path, src)
}

// CompileSource assembles src as though it had been read from path.
func (b *Builder) CompileSource(path string, src []byte) (*vm.Program, error) {
	b.active = b.active[:0]
	return b.unit(path, src)
}

// unit parses one source file into a standalone program whose addresses
// start at 0 and whose own unit is unit 0.
func (b *Builder) unit(path string, src []byte) (*vm.Program, error) {
	b.active = append(b.active, absPath(path))
	defer func() { b.active = b.active[:len(b.active)-1] }()

	log.Debugf("parsing %s", path)

	p := &vm.Program{
		Units: []vm.Unit{{File: path, Digest: sha256.Sum256(src)}},
	}
	var blocks []int // addresses of open blocks

	for lineNo, line := range splitLines(src) {
		mnemonic, column, rest := SplitMnemonic(line)
		if mnemonic == "" {
			continue
		}
		pos := vm.Position{File: path, Line: lineNo, Column: column}

		op, ok := vm.LookupMnemonic(mnemonic)
		if !ok {
			return nil, parseErrorf(pos, ErrInvalidInstruction, "instruction %q does not exist", mnemonic)
		}
		args, err := Tokenize(rest, pos)
		if err != nil {
			return nil, err
		}

		if op.Category() == vm.CategoryImport {
			if err := b.inline(p, op, args, pos); err != nil {
				return nil, err
			}
			continue
		}

		addr := len(p.Code)
		p.Code = append(p.Code, vm.Instruction{
			Op:      op,
			Args:    args,
			Pos:     pos,
			Address: addr,
			Jump:    vm.NoJump,
		})

		switch op.Category() {
		case vm.CategoryBlockOpen:
			blocks = append(blocks, addr)

		case vm.CategoryBlockClose:
			if len(blocks) == 0 {
				return nil, parseErrorf(pos, ErrUnexpectedEnd, "unexpected %s", mnemonic)
			}
			opener := blocks[len(blocks)-1]
			blocks = blocks[:len(blocks)-1]
			p.Code[opener].Jump = addr
			p.Code[addr].Jump = opener
		}
	}

	if len(blocks) > 0 {
		opener := &p.Code[blocks[len(blocks)-1]]
		return nil, parseErrorf(opener.Pos, ErrUnclosedBlock, "block %s was never closed", opener)
	}

	log.Debugf("parsed %s: %d instructions, %d units", path, len(p.Code), len(p.Units))
	return p, nil
}

// inline resolves an Import line, parses the target as its own unit and
// splices the relocated instructions onto the end of p.
func (b *Builder) inline(p *vm.Program, op vm.Opcode, args []vm.Value, pos vm.Position) error {
	if err := op.CheckCount(args); err != nil {
		return &ParseError{Pos: pos, Err: err}
	}
	if err := op.CheckTypes(args); err != nil {
		return &ParseError{Pos: pos, Err: err}
	}

	importPath := args[0].Str()
	importer := p.Units[0].File
	resolved, ok := ResolveImport(importPath, importer, b.libRoot)
	if !ok {
		return parseErrorf(pos, ErrUnresolvedImport, "import %q could not be resolved", importPath)
	}

	abs := absPath(resolved)
	for _, a := range b.active {
		if a == abs {
			return parseErrorf(pos, ErrImportCycle, "import %q of %s forms a cycle", importPath, resolved)
		}
	}

	src, err := os.ReadFile(resolved)
	if err != nil {
		return &ParseError{Pos: pos, Err: fmt.Errorf("%w: %v", ErrUnresolvedImport, err)}
	}
	sub, err := b.unit(resolved, src)
	if err != nil {
		return err
	}

	offset, unitBase := len(p.Code), len(p.Units)
	p.Code = append(p.Code, Relocate(sub.Code, offset, unitBase)...)
	p.Units = append(p.Units, sub.Units...)
	p.Imports = append(p.Imports, vm.ImportRecord{Path: importPath, Importer: importer, Resolved: resolved})
	p.Imports = append(p.Imports, sub.Imports...)

	log.Debugf("spliced %s at %d (%d instructions)", resolved, offset, len(sub.Code))
	return nil
}

// splitLines splits source text into lines without their terminators.
func splitLines(src []byte) []string {
	text := strings.TrimPrefix(string(src), "\ufeff")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
