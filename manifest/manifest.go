// Package manifest handles wilc.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
)

// FileName is the name of the project manifest.
const FileName = "wilc.toml"

var log = commonlog.GetLogger("wilc.manifest")

// Manifest represents a wilc.toml project configuration.
type Manifest struct {
	Project Project     `toml:"project"`
	Source  Source      `toml:"source"`
	Cache   CacheConfig `toml:"cache"`

	// Dir is the directory containing the wilc.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures the entry script and the library root that Import
// lines fall back to.
type Source struct {
	Entry string `toml:"entry"`
	Lib   string `toml:"lib"`
}

// CacheConfig configures the build cache.
type CacheConfig struct {
	Enabled *bool  `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load parses and validates a wilc.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Source.Entry == "" {
		m.Source.Entry = "main.wilc"
	}
	if m.Cache.Path == "" {
		m.Cache.Path = filepath.Join(".wilc", "cache.db")
	}

	log.Debugf("loaded %s (project %q)", path, m.Project.Name)
	return &m, nil
}

// FindAndLoad walks up from startDir to find a wilc.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the entry script.
func (m *Manifest) EntryPath() string {
	return m.resolve(m.Source.Entry)
}

// LibPath returns the absolute library root, or "" when none is configured.
func (m *Manifest) LibPath() string {
	if m.Source.Lib == "" {
		return ""
	}
	return m.resolve(m.Source.Lib)
}

// CacheEnabled reports whether the build cache should be used.
// The cache is on unless explicitly disabled.
func (m *Manifest) CacheEnabled() bool {
	return m.Cache.Enabled == nil || *m.Cache.Enabled
}

// CachePath returns the absolute path of the cache database.
func (m *Manifest) CachePath() string {
	return m.resolve(m.Cache.Path)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}
