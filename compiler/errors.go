package compiler

import (
	"errors"
	"fmt"

	"github.com/wilc-lang/wilc/vm"
)

// Parse failures. Each aborts program assembly.
var (
	ErrInvalidObject      = errors.New("invalid object")
	ErrInvalidInstruction = errors.New("invalid instruction")
	ErrUnexpectedEnd      = errors.New("unexpected end")
	ErrUnclosedBlock      = errors.New("unclosed block")
	ErrUnresolvedImport   = errors.New("unresolved import")
	ErrImportCycle        = errors.New("import cycle")
)

// ParseError reports a failure at a source position.
type ParseError struct {
	Pos vm.Position
	Err error
	Msg string
}

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Pos, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(pos vm.Position, err error, format string, args ...interface{}) *ParseError {
	return &ParseError{Pos: pos, Err: err, Msg: fmt.Sprintf(format, args...)}
}
