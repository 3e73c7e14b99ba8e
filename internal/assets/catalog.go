// Package assets exposes the build-time bundle (processing script and, when
// packaged, an interpreter distribution) as a read-only catalog keyed by
// slash-separated relative paths.
package assets

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Entry is one catalog item. Directories are explicit entries; their
// presence does not have to be inferred from file paths beneath them.
type Entry struct {
	Path       string
	IsDir      bool
	Executable bool
	Data       []byte
}

// Catalog is an immutable index of bundle entries.
type Catalog struct {
	entries map[string]Entry
	paths   []string
}

// NewCatalog walks fsys once and indexes every entry below its root.
func NewCatalog(fsys fs.FS) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry)}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}

		entry := Entry{Path: p, IsDir: d.IsDir()}
		if !entry.IsDir {
			data, err := fs.ReadFile(fsys, p)
			if err != nil {
				return fmt.Errorf("read %s: %w", p, err)
			}
			entry.Data = data
			entry.Executable = isExecutable(p)
		}

		c.entries[p] = entry
		c.paths = append(c.paths, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index asset bundle: %w", err)
	}

	sort.Strings(c.paths)
	return c, nil
}

// Lookup returns the entry for p. A trailing slash is accepted for
// directories.
func (c *Catalog) Lookup(p string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	e, ok := c.entries[normalize(p)]
	return e, ok
}

// Get returns the content of the file at p.
func (c *Catalog) Get(p string) ([]byte, bool) {
	e, ok := c.Lookup(p)
	if !ok || e.IsDir {
		return nil, false
	}
	return e.Data, true
}

// Has reports whether p is in the catalog.
func (c *Catalog) Has(p string) bool {
	_, ok := c.Lookup(p)
	return ok
}

// Iterate returns every path under prefix in lexical order. Directory paths
// carry a trailing slash. An empty prefix iterates the whole catalog.
func (c *Catalog) Iterate(prefix string) []string {
	if c == nil {
		return nil
	}

	root := normalize(prefix)
	var out []string
	for _, p := range c.paths {
		if root != "" && p != root && !strings.HasPrefix(p, root+"/") {
			continue
		}
		if c.entries[p].IsDir {
			out = append(out, p+"/")
		} else {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.paths)
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimSuffix(p, "/")
	if p == "" || p == "." {
		return ""
	}
	return path.Clean(strings.TrimPrefix(p, "./"))
}

// isExecutable marks interpreter binaries so they keep an exec bit when
// materialized. Embedded files carry no mode information.
func isExecutable(p string) bool {
	if strings.HasSuffix(p, ".exe") || strings.HasSuffix(p, ".sh") {
		return true
	}
	return path.Base(path.Dir(p)) == "bin"
}
