package compiler

import "github.com/wilc-lang/wilc/vm"

// Relocate returns a copy of code moved to start at address offset: every
// address and every jump target grows by offset, and every unit index
// grows by unitBase. The input is not modified.
func Relocate(code []vm.Instruction, offset, unitBase int) []vm.Instruction {
	out := make([]vm.Instruction, len(code))
	for i, in := range code {
		in.Address += offset
		if in.Jump != vm.NoJump {
			in.Jump += offset
		}
		in.Unit += unitBase
		out[i] = in
	}
	return out
}
