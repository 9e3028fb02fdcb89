package vm

import (
	"errors"
	"reflect"
	"testing"
)

func newEnv() Env {
	return Env{Local: NewScope(), Global: NewScope()}
}

func TestScopeBasics(t *testing.T) {
	sc := NewScope()
	if sc.Len() != 0 || sc.Has("a") {
		t.Fatal("new scope is not empty")
	}
	sc.Set("b", IntValue(2))
	sc.Set("a", IntValue(1))
	sc.Set("a", IntValue(3))
	if v, ok := sc.Get("a"); !ok || v.Int() != 3 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if got := sc.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Names() = %v", got)
	}
	if !sc.Delete("a") || sc.Delete("a") {
		t.Error("Delete should succeed once")
	}
	if sc.Len() != 1 {
		t.Errorf("Len() = %d, want 1", sc.Len())
	}
}

func TestEnvLookupLocalFirst(t *testing.T) {
	env := newEnv()
	env.Global.Set("x", IntValue(1))
	if v, _ := env.Lookup("x"); v.Int() != 1 {
		t.Errorf("Lookup(x) = %v, want global 1", v)
	}
	env.Local.Set("x", IntValue(2))
	if v, _ := env.Lookup("x"); v.Int() != 2 {
		t.Errorf("Lookup(x) = %v, want local 2", v)
	}
	if _, ok := env.Lookup("y"); ok {
		t.Error("Lookup(y) found an unbound name")
	}
}

func TestEnvAssign(t *testing.T) {
	env := newEnv()
	env.Assign("g", IntValue(1))
	if !env.Global.Has("g") || env.Local.Has("g") {
		t.Error("Assign of a fresh name should bind globally")
	}

	env.Local.Set("l", IntValue(0))
	env.Assign("l", IntValue(5))
	if v, _ := env.Local.Get("l"); v.Int() != 5 {
		t.Errorf("local l = %v, want 5", v)
	}
	if env.Global.Has("l") {
		t.Error("Assign of a local name leaked into global scope")
	}
}

func TestEnvRemove(t *testing.T) {
	env := newEnv()
	env.Global.Set("x", IntValue(1))
	env.Local.Set("x", IntValue(2))

	if !env.Remove("x") || env.Local.Has("x") || !env.Global.Has("x") {
		t.Error("first Remove should delete the local binding only")
	}
	if !env.Remove("x") || env.Global.Has("x") {
		t.Error("second Remove should delete the global binding")
	}
	if env.Remove("x") {
		t.Error("Remove of an unbound name reported success")
	}
}

// ---------------------------------------------------------------------------
// Format tests
// ---------------------------------------------------------------------------

func TestFormat(t *testing.T) {
	env := newEnv()
	env.Global.Set("n", IntValue(42))
	env.Global.Set("s", StringValue("str"))
	env.Global.Set("l", ListValue(1, 2, 3))
	env.Local.Set("n", IntValue(7))

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"{n}", "7"},
		{"a{s}b", "astrb"},
		{"{l}", "[1, 2, 3]"},
		{"{n}{n}", "77"},
		{"{}", "{}"},
		{"line\\nnext", "line\nnext"},
		{"\\t{s}\\r", "\tstr\r"},
		{"\\x", "\\x"},
	}
	for _, tt := range tests {
		got, err := Format(tt.in, env)
		if err != nil {
			t.Errorf("Format(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatEscapesAfterSubstitution(t *testing.T) {
	env := newEnv()
	env.Global.Set("e", StringValue(`a\nb`))
	got, err := Format("{e}", env)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a\nb" {
		t.Errorf("Format = %q, want escape resolved in substituted text", got)
	}
}

func TestFormatUnboundName(t *testing.T) {
	_, err := Format("hi {who}", newEnv())
	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("error = %v, want ErrInvalidName", err)
	}
}
