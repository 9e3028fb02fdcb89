package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Value: tagged union over Name, Integer, String and List
// ---------------------------------------------------------------------------

// Type is the tag of a Value. TypeAny is only meaningful inside an opcode's
// parameter signature; no Value ever carries it.
type Type uint8

const (
	TypeName Type = iota + 1
	TypeInteger
	TypeString
	TypeList

	// TypeAny matches every tag when checking arguments.
	TypeAny
)

var typeNames = map[Type]string{
	TypeName:    "Name",
	TypeInteger: "Integer",
	TypeString:  "String",
	TypeList:    "List",
	TypeAny:     "Any",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", t)
}

// Accepts reports whether a value of type got satisfies a parameter of type t.
func (t Type) Accepts(got Type) bool {
	return t == TypeAny || t == got
}

// List is the mutable backing store of a List value. Values copied from one
// binding to another share the same *List, so in-place mutation through one
// name is visible through every other.
type List struct {
	Items []int64
}

// Len returns the number of elements.
func (l *List) Len() int {
	return len(l.Items)
}

// Value is an immutable tagged value. The only mutable part is the element
// slice of a List, which is shared by reference.
type Value struct {
	typ  Type
	num  int64
	text string
	list *List
}

// NameValue creates a Name (an unresolved identifier).
func NameValue(name string) Value {
	return Value{typ: TypeName, text: name}
}

// IntValue creates an Integer.
func IntValue(n int64) Value {
	return Value{typ: TypeInteger, num: n}
}

// StringValue creates a String.
func StringValue(s string) Value {
	return Value{typ: TypeString, text: s}
}

// ListValue creates a List holding a fresh copy of items.
func ListValue(items ...int64) Value {
	cp := make([]int64, len(items))
	copy(cp, items)
	return Value{typ: TypeList, list: &List{Items: cp}}
}

// Type returns the value's tag.
func (v Value) Type() Type { return v.typ }

// IsName returns true if the value is an unresolved identifier.
func (v Value) IsName() bool { return v.typ == TypeName }

// IsValid returns false for the zero Value.
func (v Value) IsValid() bool { return v.typ >= TypeName && v.typ <= TypeList }

// Name returns the identifier of a Name value.
func (v Value) Name() string {
	if v.typ != TypeName {
		panic("Value.Name: not a name")
	}
	return v.text
}

// Int returns the payload of an Integer value.
func (v Value) Int() int64 {
	if v.typ != TypeInteger {
		panic("Value.Int: not an integer")
	}
	return v.num
}

// Str returns the payload of a String value.
func (v Value) Str() string {
	if v.typ != TypeString {
		panic("Value.Str: not a string")
	}
	return v.text
}

// List returns the shared backing list of a List value.
func (v Value) List() *List {
	if v.typ != TypeList {
		panic("Value.List: not a list")
	}
	return v.list
}

// String renders the value the way it is substituted into a {placeholder}:
// integers in decimal, strings verbatim, lists as "[1, 2, 3]".
func (v Value) String() string {
	switch v.typ {
	case TypeName, TypeString:
		return v.text
	case TypeInteger:
		return strconv.FormatInt(v.num, 10)
	case TypeList:
		parts := make([]string, len(v.list.Items))
		for i, n := range v.list.Items {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return "<invalid>"
}

// Literal renders the value in source syntax, used by the disassembler.
func (v Value) Literal() string {
	switch v.typ {
	case TypeString:
		return `"` + v.text + `"`
	case TypeList:
		parts := make([]string, len(v.list.Items))
		for i, n := range v.list.Items {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return v.String()
}

// Equal compares two values structurally.
func (v Value) Equal(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeInteger:
		return v.num == other.num
	case TypeName, TypeString:
		return v.text == other.text
	case TypeList:
		if v.list == other.list {
			return true
		}
		if len(v.list.Items) != len(other.list.Items) {
			return false
		}
		for i := range v.list.Items {
			if v.list.Items[i] != other.list.Items[i] {
				return false
			}
		}
		return true
	}
	return true
}
