package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "test-app"
version = "0.1.0"

[source]
entry = "scripts/start.wilc"
lib = "vendor/libs"

[cache]
enabled = false
path = "build/cache.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "test-app" {
		t.Errorf("project name = %q, want test-app", m.Project.Name)
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("project version = %q, want 0.1.0", m.Project.Version)
	}
	if m.Source.Entry != "scripts/start.wilc" {
		t.Errorf("source entry = %q, want scripts/start.wilc", m.Source.Entry)
	}
	if m.CacheEnabled() {
		t.Error("CacheEnabled() = true, want false")
	}

	abs, _ := filepath.Abs(dir)
	if got, want := m.EntryPath(), filepath.Join(abs, "scripts", "start.wilc"); got != want {
		t.Errorf("EntryPath() = %q, want %q", got, want)
	}
	if got, want := m.LibPath(), filepath.Join(abs, "vendor", "libs"); got != want {
		t.Errorf("LibPath() = %q, want %q", got, want)
	}
	if got, want := m.CachePath(), filepath.Join(abs, "build", "cache.db"); got != want {
		t.Errorf("CachePath() = %q, want %q", got, want)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Source.Entry != "main.wilc" {
		t.Errorf("default entry = %q, want main.wilc", m.Source.Entry)
	}
	if m.LibPath() != "" {
		t.Errorf("default LibPath() = %q, want empty", m.LibPath())
	}
	if !m.CacheEnabled() {
		t.Error("default CacheEnabled() = false, want true")
	}
	if filepath.Base(m.CachePath()) != "cache.db" {
		t.Errorf("default CachePath() = %q", m.CachePath())
	}
}

func TestLoadManifestAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(t.TempDir(), "libs")
	writeManifest(t, dir, "[source]\nlib = \""+filepath.ToSlash(lib)+"\"\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if filepath.Clean(m.LibPath()) != filepath.Clean(lib) {
		t.Errorf("LibPath() = %q, want %q", m.LibPath(), lib)
	}
}

func TestLoadManifestSchemaErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown table", "[image]\noutput = \"x\"\n"},
		{"unknown key", "[project]\nnamespace = \"X\"\n"},
		{"wrong type", "[cache]\nenabled = \"yes\"\n"},
		{"empty entry", "[source]\nentry = \"\"\n"},
		{"bad project name", "[project]\nname = \"has spaces\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tt.content)
			if _, err := Load(dir); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadManifestSyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project\nname = ")
	if _, err := Load(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadManifestMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"found\"\n")

	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(sub)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found" {
		t.Errorf("project name = %q, want found", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when none exists")
	}
}

func TestValidate(t *testing.T) {
	ok := `
[project]
name = "demo_2"
version = "1.0"
[source]
entry = "main.wilc"
[cache]
enabled = true
`
	if err := Validate([]byte(ok)); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	if err := Validate([]byte("")); err != nil {
		t.Errorf("Validate(empty) = %v, want nil", err)
	}
}
