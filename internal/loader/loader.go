// Package loader resolves template names to parsed templates through a
// list of search directories, caching compiled templates in memory.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/loomkit/weft/internal/template"
)

// ErrNotFound reports that no search directory contains the requested
// template. Callers match it with errors.Is.
var ErrNotFound = errors.New("template not found")

// Option configures a Loader.
type Option func(*Loader)

// WithAutoReload makes the loader re-parse a cached template when its
// file's modification time changes. Without it, a cached template is
// served for the lifetime of the loader.
func WithAutoReload() Option {
	return func(l *Loader) { l.autoReload = true }
}

// Loader loads and caches templates from a list of search directories.
// Directories are tried in order; the first file that exists wins.
// A Loader is safe for concurrent use.
type Loader struct {
	dirs       []string
	autoReload bool

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	tmpl    *template.Template
	file    string
	modTime time.Time
}

// New builds a Loader over the given search directories.
func New(dirs []string, opts ...Option) *Loader {
	l := &Loader{
		dirs:  dirs,
		cache: make(map[string]*cacheEntry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the parsed template for name, reading and parsing it on
// first use. The name is a slash-separated path relative to the search
// directories; names escaping the search roots are rejected.
func (l *Loader) Load(name string) (*template.Template, error) {
	key, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.cache[key]; ok {
		if !l.autoReload {
			return entry.tmpl, nil
		}
		if info, err := os.Stat(entry.file); err == nil && info.ModTime().Equal(entry.modTime) {
			return entry.tmpl, nil
		}
		delete(l.cache, key)
	}

	entry, err := l.open(key)
	if err != nil {
		return nil, err
	}
	l.cache[key] = entry
	return entry.tmpl, nil
}

// open searches the directories for key and parses the first match.
func (l *Loader) open(key string) (*cacheEntry, error) {
	for _, dir := range l.dirs {
		file := filepath.Join(dir, filepath.FromSlash(key))
		f, err := os.Open(file)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		tmpl, err := template.Parse(f, key)
		f.Close()
		if err != nil {
			return nil, err
		}
		return &cacheEntry{tmpl: tmpl, file: file, modTime: info.ModTime()}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// cleanName normalizes a template name and rejects names that would
// resolve outside the search directories.
func cleanName(name string) (string, error) {
	cleaned := path.Clean(filepath.ToSlash(name))
	if cleaned == "." || path.IsAbs(cleaned) ||
		cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}
	return cleaned, nil
}
