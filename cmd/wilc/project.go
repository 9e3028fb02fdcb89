package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wilc-lang/wilc/cache"
	"github.com/wilc-lang/wilc/compiler"
	"github.com/wilc-lang/wilc/manifest"
	"github.com/wilc-lang/wilc/vm"
)

// libEnv names the environment variable that overrides the library root.
const libEnv = "WILC_LIB"

// config holds the command-line settings shared by every subcommand.
type config struct {
	libFlag string
	noCache bool
	output  string
	trace   bool   // log every dispatched instruction
	dir     string // where the manifest search starts; "" means the working directory
}

// project is the resolved context for one invocation: which file to load,
// where imports come from, and the cache to consult.
type project struct {
	entry    string
	libRoot  string
	manifest *manifest.Manifest
	cache    *cache.Cache
}

func findManifest() (*manifest.Manifest, error) {
	return manifest.FindAndLoad(".")
}

// openProject resolves the entry script and library root. An empty path
// falls back to the manifest's entry.
func openProject(path string, cfg config) (*project, error) {
	dir := cfg.dir
	if dir == "" {
		dir = "."
	}
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}

	if path == "" {
		if m == nil {
			return nil, fmt.Errorf("no script given and no %s found", manifest.FileName)
		}
		path = m.EntryPath()
	}

	proj := &project{
		entry:    path,
		libRoot:  resolveLibRoot(cfg.libFlag, m),
		manifest: m,
	}
	if m != nil {
		log.Debugf("using manifest %s", filepath.Join(m.Dir, manifest.FileName))
	}

	if cfg.noCache || (m != nil && !m.CacheEnabled()) {
		return proj, nil
	}
	cachePath := defaultCachePath()
	if m != nil {
		cachePath = m.CachePath()
	}
	if cachePath == "" {
		return proj, nil
	}
	c, err := cache.Open(cachePath)
	if err != nil {
		// A broken cache never stops a run.
		log.Warningf("cache disabled: %v", err)
		return proj, nil
	}
	proj.cache = c
	return proj, nil
}

func (p *project) close() {
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			log.Warningf("closing cache: %v", err)
		}
	}
}

// load returns the program for the entry file. Program images are decoded
// directly; scripts come from the cache when it still matches the sources on
// disk, otherwise they are compiled and the result is stored.
func (p *project) load() (*vm.Program, error) {
	data, err := os.ReadFile(p.entry)
	if err != nil {
		return nil, err
	}
	if vm.IsImage(data) {
		log.Debugf("decoding image %s", p.entry)
		return vm.DecodeImage(data)
	}

	if p.cache != nil {
		prog, err := p.cache.Load(p.entry, p.libRoot)
		if err == nil {
			return prog, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warningf("cache lookup for %s: %v", p.entry, err)
		}
	}

	prog, err := compiler.CompileSource(p.entry, data, p.libRoot)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		if err := p.cache.Save(p.entry, p.libRoot, prog); err != nil {
			log.Warningf("cache store for %s: %v", p.entry, err)
		}
	}
	return prog, nil
}

// resolveLibRoot picks the import library root: the -lib flag, then
// $WILC_LIB, then the manifest, then a libs directory beside the executable.
func resolveLibRoot(flagValue string, m *manifest.Manifest) string {
	if flagValue != "" {
		return absOrSelf(flagValue)
	}
	if env := os.Getenv(libEnv); env != "" {
		return absOrSelf(env)
	}
	if m != nil {
		if lib := m.LibPath(); lib != "" {
			return lib
		}
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	libs := filepath.Join(filepath.Dir(exe), "libs")
	if info, err := os.Stat(libs); err == nil && info.IsDir() {
		return libs
	}
	return ""
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "wilc", "cache.db")
}

func absOrSelf(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
