package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wilc-lang/wilc/vm"
)

// imageExt is the conventional extension of a built program image.
const imageExt = ".wbc"

// handleBuildCommand processes the `wilc build` subcommand.
// Usage:
//
//	wilc build                     # entry from wilc.toml -> main.wbc
//	wilc build script.wilc         # script.wbc
//	wilc build -o out.wbc x.wilc   # custom output
func handleBuildCommand(args []string, cfg config) {
	var script string

	// Parse flags
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-o" || args[i] == "--output":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "Error: -o requires an output path")
				os.Exit(1)
			}
			cfg.output = args[i+1]
			i++
		case script == "":
			script = args[i]
		default:
			fmt.Fprintf(os.Stderr, "Error: unexpected argument %q\n", args[i])
			os.Exit(1)
		}
	}

	out, err := buildImage(script, cfg)
	if err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Built %s\n", out)
}

// buildImage assembles script and writes its program image. It returns the
// path written.
func buildImage(script string, cfg config) (string, error) {
	proj, err := openProject(script, cfg)
	if err != nil {
		return "", err
	}
	defer proj.close()

	p, err := proj.load()
	if err != nil {
		return "", err
	}
	data, err := vm.EncodeImage(p)
	if err != nil {
		return "", fmt.Errorf("encoding image: %w", err)
	}

	out := cfg.output
	if out == "" {
		out = strings.TrimSuffix(proj.entry, filepath.Ext(proj.entry)) + imageExt
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	log.Infof("wrote %d instructions to %s", p.Len(), out)
	return out, nil
}
