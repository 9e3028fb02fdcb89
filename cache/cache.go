// Package cache stores assembled programs in a SQLite database so that
// unchanged scripts skip parsing on the next run.
//
// An entry is keyed by the absolute entry path and library root. It is
// served only while every unit's SHA-256 digest still matches the file on
// disk and every recorded import still resolves to the same file.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/wilc-lang/wilc/compiler"
	"github.com/wilc-lang/wilc/vm"
)

var log = commonlog.GetLogger("wilc.cache")

// ErrMiss indicates that no usable entry exists for the requested key.
var ErrMiss = errors.New("cache miss")

// Cache is a persistent program cache.
type Cache struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		entry    TEXT NOT NULL,
		lib      TEXT NOT NULL,
		image    BLOB NOT NULL,
		built_at INTEGER NOT NULL,
		PRIMARY KEY (entry, lib)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened %s", path)
	return &Cache{db: db, path: path}, nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.path
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Save stores the program assembled from entry.
func (c *Cache) Save(entry, libRoot string, p *vm.Program) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := vm.EncodeImage(p)
	if err != nil {
		return fmt.Errorf("encoding program: %w", err)
	}

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO programs (entry, lib, image, built_at) VALUES (?, ?, ?, ?)",
		key(entry), key(libRoot), data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving program: %w", err)
	}

	log.Debugf("saved %s (%d bytes)", entry, len(data))
	return nil
}

// Load returns the cached program for entry if it is still fresh.
// A stale or undecodable entry is removed and reported as ErrMiss.
func (c *Cache) Load(entry, libRoot string) (*vm.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var data []byte
	err := c.db.QueryRow(
		"SELECT image FROM programs WHERE entry = ? AND lib = ?",
		key(entry), key(libRoot),
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("querying program: %w", err)
	}

	p, err := vm.DecodeImage(data)
	if err != nil {
		log.Warningf("dropping undecodable entry for %s: %s", entry, err)
		c.remove(entry, libRoot)
		return nil, ErrMiss
	}

	if reason := stale(p, libRoot); reason != "" {
		log.Debugf("stale entry for %s: %s", entry, reason)
		c.remove(entry, libRoot)
		return nil, ErrMiss
	}

	log.Debugf("hit for %s", entry)
	return p, nil
}

// Invalidate removes the entry for entry, if any.
func (c *Cache) Invalidate(entry, libRoot string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remove(entry, libRoot)
}

func (c *Cache) remove(entry, libRoot string) error {
	_, err := c.db.Exec("DELETE FROM programs WHERE entry = ? AND lib = ?", key(entry), key(libRoot))
	if err != nil {
		return fmt.Errorf("removing program: %w", err)
	}
	return nil
}

// stale returns why p no longer matches the files on disk, or "".
func stale(p *vm.Program, libRoot string) string {
	for _, u := range p.Units {
		src, err := os.ReadFile(u.File)
		if err != nil {
			return fmt.Sprintf("%s unreadable", u.File)
		}
		if sha256.Sum256(src) != u.Digest {
			return fmt.Sprintf("%s changed", u.File)
		}
	}
	for _, imp := range p.Imports {
		resolved, ok := compiler.ResolveImport(imp.Path, imp.Importer, libRoot)
		if !ok {
			return fmt.Sprintf("import %q no longer resolves", imp.Path)
		}
		if key(resolved) != key(imp.Resolved) {
			return fmt.Sprintf("import %q now resolves to %s", imp.Path, resolved)
		}
	}
	return ""
}

func key(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
