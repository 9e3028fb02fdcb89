package vm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// resolve checks the argument count, replaces every Name argument sitting
// in a non-Name parameter with its bound value, and checks the types.
// Name parameters are destinations and are left unresolved.
func (vm *VM) resolve(in *Instruction) ([]Value, error) {
	if err := in.Op.CheckCount(in.Args); err != nil {
		return nil, err
	}
	params := in.Op.Params()
	if len(params) == 0 {
		return nil, nil
	}
	env := vm.env(in)
	args := make([]Value, len(in.Args))
	for i, arg := range in.Args {
		if arg.IsName() && params[i] != TypeName {
			v, ok := env.Lookup(arg.Name())
			if !ok {
				return nil, fmt.Errorf("%w: name %s is not defined", ErrInvalidName, arg.Name())
			}
			arg = v
		}
		args[i] = arg
	}
	if err := in.Op.CheckTypes(args); err != nil {
		return nil, err
	}
	return args, nil
}

// execute runs the behavior of one instruction.
func (vm *VM) execute(in *Instruction) error {
	args, err := vm.resolve(in)
	if err != nil {
		return err
	}
	env := vm.env(in)

	switch in.Op {
	// ============ Output ============
	case OpPrint, OpPrintLine:
		text, err := Format(args[0].Str(), env)
		if err != nil {
			return err
		}
		vm.out.WriteString(text)
		if in.Op == OpPrintLine {
			vm.out.WriteByte('\n')
		}

	// ============ Bindings ============
	case OpGlobalLet:
		vm.globals.Set(args[0].Name(), args[1])

	case OpLocalLet:
		env.Local.Set(args[0].Name(), args[1])

	case OpDel:
		if !env.Remove(args[0].Name()) {
			return fmt.Errorf("%w: name %s is not defined", ErrInvalidName, args[0].Name())
		}

	// ============ Blocks ============
	case OpLabel:
		env.Assign(args[0].Name(), IntValue(int64(in.Address)))
		vm.pc = in.Jump

	case OpIfEqual:
		if args[0].Int() != args[1].Int() {
			vm.pc = in.Jump
		}

	case OpIfLessThan:
		if !(args[0].Int() < args[1].Int()) {
			vm.pc = in.Jump
		}

	case OpIfGreaterThan:
		if !(args[0].Int() > args[1].Int()) {
			vm.pc = in.Jump
		}

	case OpEnd:
		// Landing point for the matching opener.

	// ============ Control flow ============
	case OpJump:
		vm.pc = int(args[0].Int())

	case OpExit:
		vm.pc = len(vm.program.Code)

	// ============ Arithmetic ============
	case OpAdd:
		env.Assign(args[2].Name(), IntValue(args[0].Int()+args[1].Int()))

	case OpSubtract:
		env.Assign(args[2].Name(), IntValue(args[0].Int()-args[1].Int()))

	case OpAnd:
		env.Assign(args[2].Name(), IntValue(args[0].Int()&args[1].Int()))

	case OpOr:
		env.Assign(args[2].Name(), IntValue(args[0].Int()|args[1].Int()))

	case OpNot:
		env.Assign(args[1].Name(), IntValue(^args[0].Int()))

	// ============ Lists ============
	case OpListGetItem:
		list := args[0].List()
		i, err := index(list, args[1].Int())
		if err != nil {
			return err
		}
		env.Assign(args[2].Name(), IntValue(list.Items[i]))

	case OpListSetItem:
		list := args[0].List()
		i, err := index(list, args[1].Int())
		if err != nil {
			return err
		}
		list.Items[i] = args[2].Int()

	case OpListPush:
		list := args[0].List()
		list.Items = append(list.Items, args[1].Int())

	case OpListRemove:
		list := args[0].List()
		i, err := index(list, args[1].Int())
		if err != nil {
			return err
		}
		list.Items = append(list.Items[:i], list.Items[i+1:]...)

	case OpListGetSize:
		env.Assign(args[1].Name(), IntValue(int64(args[0].List().Len())))

	case OpListToString:
		s, err := decodeCodePoints(args[0].List().Items)
		if err != nil {
			return err
		}
		env.Assign(args[1].Name(), StringValue(s))

	case OpStringToList:
		env.Assign(args[1].Name(), Value{typ: TypeList, list: &List{Items: encodeCodePoints(args[0].Str())}})

	// ============ Modules ============
	case OpImport:
		// Spliced by the compiler; the instruction itself is never emitted.

	default:
		return fmt.Errorf("unknown opcode %d", in.Op)
	}
	return nil
}

// index validates a list index. Negative indexes count from the end, so -1
// is the last element.
func index(list *List, i int64) (int, error) {
	n := int64(len(list.Items))
	j := i
	if j < 0 {
		j += n
	}
	if j < 0 || j >= n {
		return 0, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, i, n)
	}
	return int(j), nil
}

func decodeCodePoints(items []int64) (string, error) {
	var sb strings.Builder
	for _, n := range items {
		if n < 0 || n > utf8.MaxRune || !utf8.ValidRune(rune(n)) {
			return "", fmt.Errorf("%w: %d", ErrInvalidCodePoint, n)
		}
		sb.WriteRune(rune(n))
	}
	return sb.String(), nil
}

func encodeCodePoints(s string) []int64 {
	items := make([]int64, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		items = append(items, int64(r))
	}
	return items
}
