package vm

import (
	"fmt"
	"sort"
)

// Opcode identifies an instruction behavior. Every mnemonic of the
// language maps to exactly one opcode.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// ========================================================================
	// Output
	// ========================================================================

	OpPrint     // Print "text {name}"
	OpPrintLine // PrintLine "text {name}"

	// ========================================================================
	// Bindings
	// ========================================================================

	OpGlobalLet // Global::Let name value
	OpLocalLet  // Local::Let name value
	OpDel       // Del name

	// ========================================================================
	// Blocks and control flow
	// ========================================================================

	OpLabel         // Label name ... End
	OpIfEqual       // IfEqual a b ... End
	OpIfLessThan    // IfLessThan a b ... End
	OpIfGreaterThan // IfGreaterThan a b ... End
	OpEnd           // End
	OpJump          // Jump address
	OpExit          // Exit

	// ========================================================================
	// Integer arithmetic and bitwise operations
	// ========================================================================

	OpAdd      // Add a b dest
	OpSubtract // Subtract a b dest
	OpAnd      // And a b dest
	OpOr       // Or a b dest
	OpNot      // Not a dest

	// ========================================================================
	// Lists and strings
	// ========================================================================

	OpListGetItem  // List::GetItem list index dest
	OpListSetItem  // List::SetItem list index value
	OpListPush     // List::Push list value
	OpListRemove   // List::Remove list index
	OpListGetSize  // List::GetSize list dest
	OpListToString // List::ToString list dest
	OpStringToList // String::ToList string dest

	// ========================================================================
	// Modules
	// ========================================================================

	OpImport // Import "path"

	opcodeCount
)

// Category partitions opcodes by how the compiler treats them.
type Category uint8

const (
	CategoryInvalid Category = iota
	CategoryOrdinary
	CategoryBlockOpen
	CategoryBlockClose
	CategoryImport
)

func (c Category) String() string {
	switch c {
	case CategoryOrdinary:
		return "ordinary"
	case CategoryBlockOpen:
		return "block-open"
	case CategoryBlockClose:
		return "block-close"
	case CategoryImport:
		return "import"
	}
	return fmt.Sprintf("Category(%d)", c)
}

// OpcodeInfo describes an opcode: its mnemonic, compiler category and
// parameter signature. Name parameters are never resolved through scope;
// every other parameter is.
type OpcodeInfo struct {
	Name     string
	Category Category
	Params   []Type
}

var (
	intIntName = []Type{TypeInteger, TypeInteger, TypeName}
	intInt     = []Type{TypeInteger, TypeInteger}
)

var opcodeInfoTable = [opcodeCount]OpcodeInfo{
	OpPrint:     {"Print", CategoryOrdinary, []Type{TypeString}},
	OpPrintLine: {"PrintLine", CategoryOrdinary, []Type{TypeString}},

	OpGlobalLet: {"Global::Let", CategoryOrdinary, []Type{TypeName, TypeAny}},
	OpLocalLet:  {"Local::Let", CategoryOrdinary, []Type{TypeName, TypeAny}},
	OpDel:       {"Del", CategoryOrdinary, []Type{TypeName}},

	OpLabel:         {"Label", CategoryBlockOpen, []Type{TypeName}},
	OpIfEqual:       {"IfEqual", CategoryBlockOpen, intInt},
	OpIfLessThan:    {"IfLessThan", CategoryBlockOpen, intInt},
	OpIfGreaterThan: {"IfGreaterThan", CategoryBlockOpen, intInt},
	OpEnd:           {"End", CategoryBlockClose, nil},
	OpJump:          {"Jump", CategoryOrdinary, []Type{TypeInteger}},
	OpExit:          {"Exit", CategoryOrdinary, nil},

	OpAdd:      {"Add", CategoryOrdinary, intIntName},
	OpSubtract: {"Subtract", CategoryOrdinary, intIntName},
	OpAnd:      {"And", CategoryOrdinary, intIntName},
	OpOr:       {"Or", CategoryOrdinary, intIntName},
	OpNot:      {"Not", CategoryOrdinary, []Type{TypeInteger, TypeName}},

	OpListGetItem:  {"List::GetItem", CategoryOrdinary, []Type{TypeList, TypeInteger, TypeName}},
	OpListSetItem:  {"List::SetItem", CategoryOrdinary, []Type{TypeList, TypeInteger, TypeInteger}},
	OpListPush:     {"List::Push", CategoryOrdinary, []Type{TypeList, TypeInteger}},
	OpListRemove:   {"List::Remove", CategoryOrdinary, []Type{TypeList, TypeInteger}},
	OpListGetSize:  {"List::GetSize", CategoryOrdinary, []Type{TypeList, TypeName}},
	OpListToString: {"List::ToString", CategoryOrdinary, []Type{TypeList, TypeName}},
	OpStringToList: {"String::ToList", CategoryOrdinary, []Type{TypeString, TypeName}},

	OpImport: {"Import", CategoryImport, []Type{TypeString}},
}

var mnemonics = func() map[string]Opcode {
	m := make(map[string]Opcode, opcodeCount)
	for op := OpInvalid + 1; op < opcodeCount; op++ {
		m[opcodeInfoTable[op].Name] = op
	}
	return m
}()

// LookupMnemonic returns the opcode for a mnemonic.
func LookupMnemonic(mnemonic string) (Opcode, bool) {
	op, ok := mnemonics[mnemonic]
	return op, ok
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns an OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if op == OpInvalid || op >= opcodeCount {
		return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(%d)", uint8(op))}
	}
	return opcodeInfoTable[op]
}

// String returns the mnemonic of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Category returns the compiler category of the opcode.
func (op Opcode) Category() Category {
	return GetOpcodeInfo(op).Category
}

// Arity returns the number of arguments the opcode expects.
func (op Opcode) Arity() int {
	return len(GetOpcodeInfo(op).Params)
}

// Params returns the parameter signature of the opcode.
func (op Opcode) Params() []Type {
	return GetOpcodeInfo(op).Params
}

// Signature renders the mnemonic with its parameter types, e.g.
// "Add Integer Integer Name".
func (op Opcode) Signature() string {
	s := op.String()
	for _, p := range op.Params() {
		s += " " + p.String()
	}
	return s
}

// CheckCount verifies the number of arguments against the opcode's arity.
func (op Opcode) CheckCount(args []Value) error {
	if want := op.Arity(); len(args) != want {
		return fmt.Errorf("%w: expected %d arguments, received %d", ErrInvalidArgumentCount, want, len(args))
	}
	return nil
}

// CheckTypes verifies each argument against the parameter signature.
// args must already have the right length.
func (op Opcode) CheckTypes(args []Value) error {
	for i, want := range op.Params() {
		if got := args[i].Type(); !want.Accepts(got) {
			return fmt.Errorf("%w: argument %d must have type %s, received %s", ErrInvalidArgumentType, i, want, got)
		}
	}
	return nil
}

// AllMnemonics returns every mnemonic, sorted.
func AllMnemonics() []string {
	names := make([]string, 0, len(mnemonics))
	for name := range mnemonics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllOpcodes returns every defined opcode in declaration order.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, opcodeCount-1)
	for op := OpInvalid + 1; op < opcodeCount; op++ {
		ops = append(ops, op)
	}
	return ops
}
