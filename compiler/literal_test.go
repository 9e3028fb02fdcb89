package compiler

import (
	"errors"
	"strconv"
	"testing"

	"github.com/wilc-lang/wilc/vm"
)

var testPos = vm.Position{File: "test.wilc", Line: 3, Column: 4}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		tok  string
		want vm.Value
	}{
		{"0", vm.IntValue(0)},
		{"42", vm.IntValue(42)},
		{"-17", vm.IntValue(-17)},
		{"007", vm.IntValue(7)},
		{"9223372036854775807", vm.IntValue(9223372036854775807)},
		{"-9223372036854775808", vm.IntValue(-9223372036854775808)},
		{`""`, vm.StringValue("")},
		{`"hello world"`, vm.StringValue("hello world")},
		{`"a;b [c]"`, vm.StringValue("a;b [c]")},
		{`"raw\n"`, vm.StringValue(`raw\n`)},
		{`"{x}"`, vm.StringValue("{x}")},
		{"[1,2,3]", vm.ListValue(1, 2, 3)},
		{"[ 1 , -2 ,3 ]", vm.ListValue(1, -2, 3)},
		{"[5]", vm.ListValue(5)},
		{"[]", vm.ListValue()},
		{"[   ]", vm.ListValue()},
		{"x", vm.NameValue("x")},
		{"_tmp1", vm.NameValue("_tmp1")},
		{"1abc", vm.NameValue("1abc")},
		{"größe", vm.NameValue("größe")},
	}
	for _, tt := range tests {
		got, err := ParseLiteral(tt.tok, testPos)
		if err != nil {
			t.Errorf("ParseLiteral(%q) error: %v", tt.tok, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseLiteral(%q) = %v (%v), want %v (%v)", tt.tok, got, got.Type(), tt.want, tt.want.Type())
		}
	}
}

func TestParseLiteralIntegersWinFirst(t *testing.T) {
	// Digit-only tokens are also words; the integer rule must win.
	for _, n := range []int64{0, 1, -1, 123456789, -987654321} {
		tok := strconv.FormatInt(n, 10)
		got, err := ParseLiteral(tok, testPos)
		if err != nil {
			t.Fatalf("ParseLiteral(%q) error: %v", tok, err)
		}
		if got.Type() != vm.TypeInteger || got.Int() != n {
			t.Errorf("ParseLiteral(%q) = %v (%v), want integer %d", tok, got, got.Type(), n)
		}
	}
}

func TestParseLiteralInvalid(t *testing.T) {
	for _, tok := range []string{
		`"unterminated`,
		`"a"b"`,
		`"a" "b"`,
		"[1,2",
		"[1,,2]",
		"[a]",
		"[1,]",
		"a-b",
		"x.y",
		"--1",
		"+1",
		"99999999999999999999",
		"[1,99999999999999999999]",
	} {
		_, err := ParseLiteral(tok, testPos)
		if !errors.Is(err, ErrInvalidObject) {
			t.Errorf("ParseLiteral(%q) error = %v, want ErrInvalidObject", tok, err)
			continue
		}
		var perr *ParseError
		if !errors.As(err, &perr) || perr.Pos != testPos {
			t.Errorf("ParseLiteral(%q) error does not carry the position: %v", tok, err)
		}
	}
}
