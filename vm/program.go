package vm

import (
	"fmt"
	"strings"
)

// NoJump marks an instruction without a jump target.
const NoJump = -1

// Position is a 0-based source location.
type Position struct {
	File   string
	Line   int
	Column int
}

// String formats the position with a 1-based line, as diagnostics print it.
func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line+1, p.Column)
}

// Instruction is one addressable entry of a Program.
//
// Args are kept unresolved: a Name argument is looked up in scope only when
// the instruction executes. Jump is set only for block openers and closers:
// an opener holds the address of its matching closer, a closer links back
// to its opener.
type Instruction struct {
	Op      Opcode
	Args    []Value
	Pos     Position
	Address int
	Jump    int

	// Unit indexes Program.Units; instructions of the same unit share one
	// local scope at run time.
	Unit int
}

// Name returns the display name of the instruction's mnemonic.
func (in *Instruction) Name() string {
	return in.Op.String()
}

func (in *Instruction) String() string {
	var sb strings.Builder
	sb.WriteString("<")
	sb.WriteString(in.Name())
	for _, arg := range in.Args {
		sb.WriteString(" ")
		sb.WriteString(arg.Literal())
	}
	sb.WriteString(">")
	return sb.String()
}

// Unit describes one parsed source file: the entry script or an imported
// module. Digest is the SHA-256 of the file contents at parse time.
type Unit struct {
	File   string
	Digest [32]byte
}

// ImportRecord remembers how an Import line was resolved.
type ImportRecord struct {
	Path     string // import text as written
	Importer string // file containing the Import line
	Resolved string // file that was spliced in
}

// Program is the flat, addressable instruction sequence produced by the
// compiler. Code[i].Address == i for every instruction.
type Program struct {
	Units   []Unit
	Code    []Instruction
	Imports []ImportRecord
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Code)
}

// At returns the instruction at addr, or nil when addr is out of range.
func (p *Program) At(addr int) *Instruction {
	if addr < 0 || addr >= len(p.Code) {
		return nil
	}
	return &p.Code[addr]
}

// Verify checks the structural invariants of a program: sequential
// addresses, valid unit indexes, and stack-disciplined blocks whose openers
// point at their matching closers. Programs loaded from images are
// verified before they run.
func (p *Program) Verify() error {
	var open []int
	for i := range p.Code {
		in := &p.Code[i]
		if in.Address != i {
			return fmt.Errorf("instruction %d has address %d", i, in.Address)
		}
		if in.Unit < 0 || in.Unit >= len(p.Units) {
			return fmt.Errorf("instruction %d refers to unit %d of %d", i, in.Unit, len(p.Units))
		}
		switch in.Op.Category() {
		case CategoryBlockOpen:
			open = append(open, i)
		case CategoryBlockClose:
			if len(open) == 0 {
				return fmt.Errorf("instruction %d closes no block", i)
			}
			opener := &p.Code[open[len(open)-1]]
			open = open[:len(open)-1]
			if opener.Jump != i || in.Jump != opener.Address {
				return fmt.Errorf("block at %d jumps to %d, closer at %d links back to %d", opener.Address, opener.Jump, i, in.Jump)
			}
		case CategoryInvalid:
			return fmt.Errorf("instruction %d has unknown opcode %d", i, in.Op)
		}
	}
	if len(open) > 0 {
		return fmt.Errorf("block at %d is never closed", open[len(open)-1])
	}
	return nil
}
