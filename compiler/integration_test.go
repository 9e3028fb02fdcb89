package compiler

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/wilc-lang/wilc/vm"
)

// Integration tests: compile and execute real scripts

func runScript(t *testing.T, src string) (string, error) {
	t.Helper()
	p, err := CompileSource("script.wilc", []byte(src), "")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	m := vm.New(p)
	err = m.Run()
	return m.Output(), err
}

func TestIntegrationScripts(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "hello",
			src:  "PrintLine \"Hello, world!\"\n",
			want: "Hello, world!\n",
		},
		{
			name: "add then print",
			src:  "Add 2 3 x\nPrint \"{x}\"\n",
			want: "5",
		},
		{
			name: "false block is skipped",
			src: `IfLessThan 5 1
    Print "a"
End
Print "b"`,
			want: "b",
		},
		{
			name: "countdown loop",
			src: `Global::Let i 5
Label loop
    Print "{i} "
    Subtract i 1 i
    IfGreaterThan i 0
        Jump loop
    End
    Exit
End
Jump loop`,
			want: "5 4 3 2 1 ",
		},
		{
			name: "label address",
			src: `IfEqual 1 2
End
Label here
End
Print "{here}"`,
			want: "2",
		},
		{
			name: "list manipulation",
			src: `Global::Let l [3, 1, 4]
List::Push l 1
List::SetItem l 0 9
List::Remove l 1
List::GetSize l size
List::GetItem l 2 last
PrintLine "{l} size={size} last={last}"`,
			want: "[9, 4, 1] size=3 last=1\n",
		},
		{
			name: "string round trip",
			src: `String::ToList "héllo, wörld" codes
List::Push codes 33
List::ToString codes text
Print "{text}"`,
			want: "héllo, wörld!",
		},
		{
			name: "bitwise",
			src: `And 12 10 a
Or 12 10 o
Not 0 n
Print "{a} {o} {n}"`,
			want: "8 14 -1",
		},
		{
			name: "escapes and semicolons in strings",
			src:  `Print "a;b\tc\n" ; comment`,
			want: "a;b\tc\n",
		},
		{
			name: "exit stops early",
			src:  "Print \"a\"\nExit\nPrint \"b\"\n",
			want: "a",
		},
		{
			name: "local shadows global",
			src: `Global::Let v 1
Local::Let v 2
Print "{v}"
Del v
Print "{v}"`,
			want: "21",
		},
		{
			name: "empty program",
			src:  "; nothing here\n\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runScript(t, tt.src)
			if err != nil {
				t.Fatalf("run error: %v (output %q)", err, out)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestIntegrationRuntimeErrorKeepsOutput(t *testing.T) {
	out, err := runScript(t, "Print \"partial\"\nList::GetItem [1] 5 x\nPrint \"never\"\n")
	if !errors.Is(err, vm.ErrIndexOutOfRange) {
		t.Fatalf("error = %v, want ErrIndexOutOfRange", err)
	}
	if out != "partial" {
		t.Errorf("output = %q, want partial", out)
	}
	var rerr *vm.RuntimeError
	if !errors.As(err, &rerr) || rerr.Instr.Name() != "List::GetItem" || rerr.Instr.Pos.Line != 1 {
		t.Errorf("runtime error does not identify the failing instruction: %v", err)
	}
}

func TestIntegrationArgumentErrors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"Print x\n", vm.ErrInvalidName},
		{"Add 1 2\n", vm.ErrInvalidArgumentCount},
		{"Jump \"0\"\n", vm.ErrInvalidArgumentType},
		{"End\n", nil},
	}
	for _, tt := range tests {
		if tt.want == nil {
			if _, err := CompileSource("script.wilc", []byte(tt.src), ""); err == nil {
				t.Errorf("%q compiled, want a parse error", tt.src)
			}
			continue
		}
		_, err := runScript(t, tt.src)
		if !errors.Is(err, tt.want) {
			t.Errorf("%q error = %v, want %v", tt.src, err, tt.want)
		}
	}
}

func TestIntegrationImportedLocalsStayPrivate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "lib.wilc"), `Local::Let secret 1
Global::Let shared 2
Add secret 10 secret
Print "{secret}"`)
	main := filepath.Join(dir, "main.wilc")
	writeFile(t, main, `Local::Let secret 100
Import "lib.wilc"
Print " {secret} {shared}"`)

	p, err := Compile(main, "")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	m := vm.New(p)
	if err := m.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if got, want := m.Output(), "11 100 2"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}
