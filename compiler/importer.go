package compiler

import (
	"os"
	"path/filepath"
)

// ResolveImport maps the text of an Import line to a file.
//
// A relative path is probed both beside the importing file and under
// libRoot. The library file is used if it exists, but a file beside the
// importer takes precedence over it. An absolute path is used as is.
// The second result is false when no file matches.
func ResolveImport(importPath, importer, libRoot string) (string, bool) {
	path := importPath

	if !filepath.IsAbs(importPath) {
		path = ""
		dir := importer
		if info, err := os.Stat(importer); err != nil || !info.IsDir() {
			dir = filepath.Dir(importer)
		}

		if libRoot != "" {
			if lib := filepath.Join(libRoot, importPath); isFile(lib) {
				path = lib
			}
		}
		if src := filepath.Join(dir, importPath); isFile(src) {
			path = src
		}
	}

	if path == "" || !isFile(path) {
		return "", false
	}
	return filepath.Clean(path), true
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
