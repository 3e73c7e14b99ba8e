// Package provision materializes catalog entries onto the real filesystem
// under a per-application cache directory.
package provision

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/spherical/pdf2excel/internal/assets"
	"github.com/spherical/pdf2excel/internal/domain"
	"github.com/spherical/pdf2excel/internal/observability"
)

// Source is the catalog view the extractor needs.
type Source interface {
	Lookup(path string) (assets.Entry, bool)
	Iterate(prefix string) []string
}

// Extractor writes catalog entries below Root. The presence of a target on
// disk is the cache: an existing target is never rewritten, whatever its
// content.
type Extractor struct {
	src    Source
	root   string
	logger *observability.Logger
	flight singleflight.Group
}

// NewExtractor creates an extractor rooted at root.
func NewExtractor(src Source, root string, logger *observability.Logger) *Extractor {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Extractor{
		src:    src,
		root:   root,
		logger: logger.WithComponent("extractor"),
	}
}

// DefaultRoot returns the per-application temp directory for appName.
func DefaultRoot(appName string) string {
	return filepath.Join(os.TempDir(), appName)
}

// Root returns the cache directory.
func (e *Extractor) Root() string {
	return e.root
}

// Target returns where rel is (or would be) materialized.
func (e *Extractor) Target(rel string) string {
	clean := strings.TrimSuffix(strings.ReplaceAll(rel, "\\", "/"), "/")
	return filepath.Join(e.root, filepath.FromSlash(clean))
}

// Extract materializes rel and returns its filesystem path. Concurrent
// calls for the same target share one extraction.
func (e *Extractor) Extract(rel string) (string, error) {
	target := e.Target(rel)

	v, err, _ := e.flight.Do(target, func() (interface{}, error) {
		return target, e.extract(rel, target)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (e *Extractor) extract(rel, target string) error {
	if err := os.MkdirAll(e.root, 0o755); err != nil {
		return domain.ExtractionError(fmt.Sprintf("create cache directory %s", e.root), err)
	}

	if _, err := os.Stat(target); err == nil {
		return nil
	}

	entry, ok := e.src.Lookup(rel)
	if !ok {
		return domain.ExtractionError(fmt.Sprintf("asset not found in bundle: %s", rel), nil)
	}

	if entry.IsDir {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return domain.ExtractionError(fmt.Sprintf("create directory %s", target), err)
		}
		return nil
	}

	if err := writeAtomic(target, entry); err != nil {
		return domain.ExtractionError(fmt.Sprintf("write asset %s", target), err)
	}

	e.logger.Debug().
		Str("asset", rel).
		Str("target", target).
		Int("bytes", len(entry.Data)).
		Msg("Extracted asset")
	return nil
}

// ExtractDirectory extracts every catalog path under prefix, directories
// included, and stops at the first failure.
func (e *Extractor) ExtractDirectory(prefix string) error {
	paths := e.src.Iterate(prefix)
	if len(paths) == 0 {
		return domain.ExtractionError(fmt.Sprintf("asset not found in bundle: %s", prefix), nil)
	}

	for _, p := range paths {
		if _, err := e.Extract(p); err != nil {
			return err
		}
	}
	return nil
}

// Purge removes the whole cache directory. Stale extractions are otherwise
// never invalidated. A root that is a filesystem root or the system temp
// directory itself is refused.
func (e *Extractor) Purge() error {
	if unsafeRoot(e.root) {
		return domain.ExtractionError(fmt.Sprintf("refusing to remove cache directory %q", e.root), nil)
	}
	if err := os.RemoveAll(e.root); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.ExtractionError(fmt.Sprintf("remove cache directory %s", e.root), err)
	}
	return nil
}

func unsafeRoot(root string) bool {
	if strings.TrimSpace(root) == "" {
		return true
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return true
	}
	if abs == filepath.Dir(abs) {
		return true
	}
	tmp, err := filepath.Abs(os.TempDir())
	return err == nil && abs == tmp
}

// writeAtomic writes the entry next to target and renames it into place so
// a concurrent reader never observes a partial file.
func writeAtomic(target string, entry assets.Entry) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".extract-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(entry.Data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	mode := fs.FileMode(0o644)
	if entry.Executable {
		mode = 0o755
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return err
	}

	return os.Rename(tmpName, target)
}
