package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wilc-lang/wilc/vm"
)

func TestResolveImportPrecedence(t *testing.T) {
	src := t.TempDir()
	lib := t.TempDir()
	importer := filepath.Join(src, "main.wilc")
	writeFile(t, importer, "")

	writeFile(t, filepath.Join(lib, "both.wilc"), "")
	writeFile(t, filepath.Join(src, "both.wilc"), "")
	writeFile(t, filepath.Join(lib, "libonly.wilc"), "")
	writeFile(t, filepath.Join(src, "srconly.wilc"), "")

	tests := []struct {
		path string
		want string
	}{
		{"both.wilc", filepath.Join(src, "both.wilc")},
		{"libonly.wilc", filepath.Join(lib, "libonly.wilc")},
		{"srconly.wilc", filepath.Join(src, "srconly.wilc")},
	}
	for _, tt := range tests {
		got, ok := ResolveImport(tt.path, importer, lib)
		if !ok {
			t.Errorf("ResolveImport(%q) unresolved", tt.path)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveImport(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestResolveImportUnresolved(t *testing.T) {
	src := t.TempDir()
	importer := filepath.Join(src, "main.wilc")
	writeFile(t, importer, "")
	if err := os.MkdirAll(filepath.Join(src, "adir"), 0755); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"missing.wilc", "adir", filepath.Join(src, "nope.wilc")} {
		if got, ok := ResolveImport(path, importer, ""); ok {
			t.Errorf("ResolveImport(%q) = %q, want unresolved", path, got)
		}
	}
}

func TestResolveImportAbsolute(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "abs.wilc")
	writeFile(t, abs, "")

	got, ok := ResolveImport(abs, filepath.Join(t.TempDir(), "main.wilc"), t.TempDir())
	if !ok || got != abs {
		t.Errorf("ResolveImport(abs) = %q, %v; want %q", got, ok, abs)
	}
}

func TestResolveImportNoLibRoot(t *testing.T) {
	src := t.TempDir()
	importer := filepath.Join(src, "main.wilc")
	writeFile(t, filepath.Join(src, "x.wilc"), "")

	got, ok := ResolveImport("x.wilc", importer, "")
	if !ok || got != filepath.Join(src, "x.wilc") {
		t.Errorf("ResolveImport = %q, %v", got, ok)
	}
}

func TestCompileImportPrefersSourceOverLibrary(t *testing.T) {
	src := t.TempDir()
	lib := t.TempDir()
	writeFile(t, filepath.Join(lib, "greet.wilc"), "Print \"library\"\n")
	writeFile(t, filepath.Join(src, "greet.wilc"), "Print \"local\"\n")
	main := filepath.Join(src, "main.wilc")
	writeFile(t, main, "Import \"greet.wilc\"\n")

	p, err := Compile(main, lib)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	m := vm.New(p)
	if err := m.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if m.Output() != "local" {
		t.Errorf("output = %q, want local", m.Output())
	}
}

// ---------------------------------------------------------------------------
// Relocation
// ---------------------------------------------------------------------------

func TestRelocate(t *testing.T) {
	code := []vm.Instruction{
		{Op: vm.OpIfEqual, Address: 0, Jump: 2, Unit: 0},
		{Op: vm.OpPrint, Address: 1, Jump: vm.NoJump, Unit: 1},
		{Op: vm.OpEnd, Address: 2, Jump: 0, Unit: 0},
	}
	out := Relocate(code, 10, 3)

	want := []struct{ addr, jump, unit int }{
		{10, 12, 3}, {11, vm.NoJump, 4}, {12, 10, 3},
	}
	for k, w := range want {
		if out[k].Address != w.addr || out[k].Jump != w.jump || out[k].Unit != w.unit {
			t.Errorf("instruction %d = (%d, %d, %d), want (%d, %d, %d)",
				k, out[k].Address, out[k].Jump, out[k].Unit, w.addr, w.jump, w.unit)
		}
	}

	if code[0].Address != 0 || code[0].Jump != 2 || code[1].Unit != 1 {
		t.Error("Relocate modified its input")
	}
}

func TestRelocateZeroIsIdentity(t *testing.T) {
	code := []vm.Instruction{{Op: vm.OpEnd, Address: 0, Jump: 0}}
	out := Relocate(code, 0, 0)
	if out[0].Address != 0 || out[0].Jump != 0 || out[0].Unit != 0 {
		t.Errorf("Relocate(0, 0) = %+v, want %+v", out[0], code[0])
	}
	if len(Relocate(nil, 5, 5)) != 0 {
		t.Error("Relocate(nil) should be empty")
	}
}
