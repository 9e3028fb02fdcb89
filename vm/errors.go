package vm

import (
	"errors"
	"fmt"
)

// Runtime failures. Each aborts execution at the instruction that raised it.
var (
	ErrInvalidName          = errors.New("invalid name")
	ErrInvalidArgumentCount = errors.New("invalid argument count")
	ErrInvalidArgumentType  = errors.New("invalid argument type")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrInvalidCodePoint     = errors.New("invalid code point")
)

// RuntimeError reports a fatal error raised while executing an instruction.
// It carries the failing instruction so a caller can print the source line.
type RuntimeError struct {
	Instr *Instruction
	Err   error
}

func (e *RuntimeError) Error() string {
	if e.Instr == nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s at %s: %v", e.Instr.Name(), e.Instr.Pos, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// InternalError wraps an unexpected failure (a recovered panic) raised
// while executing an instruction.
type InternalError struct {
	Instr *Instruction
	Cause any
}

func (e *InternalError) Error() string {
	if e.Instr == nil {
		return fmt.Sprintf("internal error: %v", e.Cause)
	}
	return fmt.Sprintf("internal error in %s at %s: %v", e.Instr.Name(), e.Instr.Pos, e.Cause)
}
