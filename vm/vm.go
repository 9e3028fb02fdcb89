package vm

import (
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("wilc.vm")

// VM executes a Program. It owns the global scope, one local scope per unit
// of the program, and the output sink.
type VM struct {
	program *Program
	pc      int // program counter
	globals *Scope
	locals  []*Scope
	out     strings.Builder
	steps   uint64

	// Trace logs every dispatched instruction at debug level.
	Trace bool
}

// New creates a VM ready to run p from address 0.
func New(p *Program) *VM {
	locals := make([]*Scope, len(p.Units))
	for i := range locals {
		locals[i] = NewScope()
	}
	return &VM{
		program: p,
		globals: NewScope(),
		locals:  locals,
	}
}

// Program returns the program being executed.
func (vm *VM) Program() *Program { return vm.program }

// PC returns the program counter.
func (vm *VM) PC() int { return vm.pc }

// Globals returns the global scope.
func (vm *VM) Globals() *Scope { return vm.globals }

// Locals returns the local scope of a unit.
func (vm *VM) Locals(unit int) *Scope { return vm.locals[unit] }

// Steps returns the number of instructions dispatched so far.
func (vm *VM) Steps() uint64 { return vm.steps }

// Output returns everything written to the output sink so far.
func (vm *VM) Output() string { return vm.out.String() }

// Running reports whether the program counter still addresses an
// instruction.
func (vm *VM) Running() bool {
	return vm.pc >= 0 && vm.pc < len(vm.program.Code)
}

// Current returns the instruction at the program counter, or nil once the
// program has halted.
func (vm *VM) Current() *Instruction {
	return vm.program.At(vm.pc)
}

// Run executes instructions until the counter runs past the end of the
// program or an instruction fails. Output written before a failure is kept.
func (vm *VM) Run() error {
	log.Debugf("running %d instructions from %d units", len(vm.program.Code), len(vm.program.Units))
	for vm.Running() {
		if err := vm.Step(); err != nil {
			log.Debugf("halted after %d steps: %v", vm.steps, err)
			return err
		}
	}
	log.Debugf("finished after %d steps", vm.steps)
	return nil
}

// Step dispatches the instruction at the program counter, then advances the
// counter by one. An instruction that assigns the counter still gets the
// increment on top: a jump to address A resumes at A+1. Step on a halted VM
// does nothing.
func (vm *VM) Step() (err error) {
	if !vm.Running() {
		return nil
	}
	in := &vm.program.Code[vm.pc]
	if vm.Trace {
		log.Debugf("[%04d] %s", vm.pc, in)
	}
	defer func() {
		if r := recover(); r != nil {
			err = &InternalError{Instr: in, Cause: r}
		}
	}()

	vm.steps++
	if err := vm.execute(in); err != nil {
		return &RuntimeError{Instr: in, Err: err}
	}
	vm.pc++
	return nil
}

// env returns the scope view for an instruction.
func (vm *VM) env(in *Instruction) Env {
	return Env{Local: vm.locals[in.Unit], Global: vm.globals}
}
