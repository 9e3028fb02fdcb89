// wilc CLI - the main entry point for running wilc scripts
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/wilc-lang/wilc/server"
	"github.com/wilc-lang/wilc/vm"
)

var log = commonlog.GetLogger("wilc")

// verbosity is a repeatable boolean flag: -v -v raises the log level twice.
type verbosity int

func (v *verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *verbosity) IsBoolFlag() bool { return true }

func (v *verbosity) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*v++
	}
	return nil
}

func main() {
	var verbose verbosity
	flag.Var(&verbose, "v", "Verbose output (repeat for more)")
	timing := flag.Bool("t", false, "Print the elapsed time after running")
	libFlag := flag.String("lib", "", "Library root for imports (default $WILC_LIB, manifest, or libs/ beside wilc)")
	noCache := flag.Bool("no-cache", false, "Do not read or write the build cache")
	output := flag.String("o", "", "Output path for 'wilc build'")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wilc [options] [script.wilc | image.wbc]\n")
		fmt.Fprintf(os.Stderr, "       wilc [options] build [-o out.wbc] [script.wilc]\n")
		fmt.Fprintf(os.Stderr, "       wilc [options] disasm [script.wilc | image.wbc]\n")
		fmt.Fprintf(os.Stderr, "       wilc [options] lsp\n\n")
		fmt.Fprintf(os.Stderr, "Runs a wilc script. Without a script, runs the entry named in wilc.toml.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  wilc hello.wilc                # Run a script\n")
		fmt.Fprintf(os.Stderr, "  wilc -t hello.wilc             # Run and print the elapsed time\n")
		fmt.Fprintf(os.Stderr, "  wilc build -o hello.wbc hello.wilc\n")
		fmt.Fprintf(os.Stderr, "  wilc hello.wbc                 # Run a built image\n")
		fmt.Fprintf(os.Stderr, "  wilc disasm hello.wilc         # List the assembled instructions\n")
	}
	flag.Parse()

	commonlog.Configure(int(verbose), nil)

	cfg := config{
		libFlag: *libFlag,
		noCache: *noCache,
		output:  *output,
		trace:   verbose >= 2,
	}

	args := flag.Args()
	if len(args) > 0 {
		switch args[0] {
		case "build":
			handleBuildCommand(args[1:], cfg)
			return
		case "disasm":
			handleDisasmCommand(args[1:], cfg)
			return
		case "lsp":
			handleLspCommand(cfg)
			return
		}
	}

	if len(args) > 1 {
		flag.Usage()
		os.Exit(2)
	}
	var path string
	if len(args) == 1 {
		path = args[0]
	}

	start := time.Now()
	code := runScript(os.Stdout, os.Stderr, path, cfg)
	if *timing {
		fmt.Printf("[Finished in %.4fs.]\n", time.Since(start).Seconds())
	}
	os.Exit(code)
}

// runScript loads and executes one script or image and returns the process
// exit code. Script output is written to stdout before any error report.
func runScript(stdout, stderr io.Writer, path string, cfg config) int {
	proj, err := openProject(path, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer proj.close()

	p, err := proj.load()
	if err != nil {
		report(stderr, err)
		return 1
	}

	m := vm.New(p)
	m.Trace = cfg.trace
	err = m.Run()
	log.Infof("halted after %d instructions", m.Steps())
	fmt.Fprintln(stdout, m.Output())
	if err != nil {
		report(stderr, err)
		return 1
	}
	return 0
}

// handleLspCommand processes the `wilc lsp` subcommand. The server speaks
// over stdio until the client disconnects.
func handleLspCommand(cfg config) {
	m, err := findManifest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if err := server.NewLSP(resolveLibRoot(cfg.libFlag, m)).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Language server error: %v\n", err)
		os.Exit(1)
	}
}
