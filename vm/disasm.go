package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the program.
func (p *Program) Disassemble() string {
	return p.DisassembleWithName("")
}

// DisassembleWithName returns a listing with a name header.
func (p *Program) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; wilc program image v%d\n", ImageVersion))
	sb.WriteString(fmt.Sprintf("; Instructions: %d\n", len(p.Code)))

	if len(p.Units) > 0 {
		sb.WriteString("; Units:\n")
		for i, u := range p.Units {
			sb.WriteString(fmt.Sprintf(";   [%3d] %s\n", i, u.File))
		}
	}
	if len(p.Imports) > 0 {
		sb.WriteString("; Imports:\n")
		for _, imp := range p.Imports {
			sb.WriteString(fmt.Sprintf(";   %q from %s -> %s\n", imp.Path, imp.Importer, imp.Resolved))
		}
	}
	sb.WriteString("\n")

	sb.WriteString("; Code:\n")
	for i := range p.Code {
		sb.WriteString(p.disassembleInstruction(&p.Code[i]))
		sb.WriteString("\n")
	}
	return sb.String()
}

// disassembleInstruction formats one instruction as
// "address  unit  mnemonic args  -> jump  ; line:col".
func (p *Program) disassembleInstruction(in *Instruction) string {
	var text strings.Builder
	text.WriteString(in.Name())
	for _, arg := range in.Args {
		text.WriteString(" ")
		text.WriteString(arg.Literal())
	}
	if in.Jump != NoJump {
		text.WriteString(fmt.Sprintf(" -> %04d", in.Jump))
	}
	return fmt.Sprintf("%04d  u%-3d %-40s ; %d:%d", in.Address, in.Unit, text.String(), in.Pos.Line+1, in.Pos.Column)
}
