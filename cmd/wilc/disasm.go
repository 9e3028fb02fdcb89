package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// handleDisasmCommand processes the `wilc disasm` subcommand.
func handleDisasmCommand(args []string, cfg config) {
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, "Usage: wilc disasm [script.wilc | image.wbc]")
		os.Exit(2)
	}
	var script string
	if len(args) == 1 {
		script = args[0]
	}

	listing, err := disassemble(script, cfg)
	if err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(listing)
}

func disassemble(script string, cfg config) (string, error) {
	proj, err := openProject(script, cfg)
	if err != nil {
		return "", err
	}
	defer proj.close()

	p, err := proj.load()
	if err != nil {
		return "", err
	}
	return p.DisassembleWithName(filepath.Base(proj.entry)), nil
}
