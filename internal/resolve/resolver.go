// Package resolve locates the interpreter and the processing script. The
// result is computed once per process and reused for every call.
package resolve

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/spherical/pdf2excel/internal/assets"
	"github.com/spherical/pdf2excel/internal/observability"
	"github.com/spherical/pdf2excel/internal/provision"
)

// Environment is the resolved pair of on-disk locations.
type Environment struct {
	Interpreter string `json:"interpreter"`
	Script      string `json:"script"`
}

// Exists reports whether both paths currently exist on disk.
func (e Environment) Exists() bool {
	return exists(e.Interpreter) && exists(e.Script)
}

// Options configures candidate discovery.
type Options struct {
	// GOOS selects the candidate layout; defaults to runtime.GOOS.
	GOOS string
	// ExeDir is the running executable's directory; defaults to the
	// directory of os.Executable. Empty after defaulting means no
	// executable-relative candidates.
	ExeDir string
	// InterpreterOverride and ScriptOverride short-circuit discovery.
	InterpreterOverride string
	ScriptOverride      string
}

// Catalog is the part of the asset catalog the resolver consults.
type Catalog interface {
	Has(path string) bool
}

// Resolver finds the interpreter and script once and caches the result.
type Resolver struct {
	opts      Options
	catalog   Catalog
	extractor *provision.Extractor
	logger    *observability.Logger

	once sync.Once
	env  Environment
}

// New creates a resolver. The extractor's root is the extraction cache.
func New(opts Options, catalog Catalog, extractor *provision.Extractor, logger *observability.Logger) *Resolver {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.ExeDir == "" {
		if exe, err := os.Executable(); err == nil {
			opts.ExeDir = filepath.Dir(exe)
		}
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Resolver{
		opts:      opts,
		catalog:   catalog,
		extractor: extractor,
		logger:    logger.WithComponent("resolver"),
	}
}

// Environment returns the resolved locations, resolving on first call.
func (r *Resolver) Environment() Environment {
	r.once.Do(func() {
		r.env = Environment{
			Interpreter: r.resolveInterpreter(),
			Script:      r.resolveScript(),
		}
		r.logger.Info().
			Str("interpreter", r.env.Interpreter).
			Str("script", r.env.Script).
			Msg("Resolved environment")
	})
	return r.env
}

func (r *Resolver) cacheDir() string {
	if r.extractor == nil {
		return ""
	}
	return r.extractor.Root()
}

func (r *Resolver) resolveInterpreter() string {
	if r.opts.InterpreterOverride != "" {
		return r.opts.InterpreterOverride
	}

	if p, ok := r.firstExisting(InterpreterCandidates(r.opts.GOOS, r.cacheDir(), r.opts.ExeDir)); ok {
		return p
	}

	asset := assets.InterpreterAsset(r.opts.GOOS)
	if r.extractor != nil && r.catalog != nil && r.catalog.Has(asset) {
		if err := r.extractor.ExtractDirectory(assets.InterpreterBundle); err != nil {
			r.logger.Warn().Err(err).Msg("Interpreter extraction failed")
		} else {
			return r.extractor.Target(asset)
		}
	}

	return BareInterpreter(r.opts.GOOS)
}

func (r *Resolver) resolveScript() string {
	if r.opts.ScriptOverride != "" {
		return r.opts.ScriptOverride
	}

	if p, ok := r.firstExisting(ScriptCandidates(r.opts.GOOS, r.cacheDir(), r.opts.ExeDir)); ok {
		return p
	}

	if r.extractor != nil && r.catalog != nil && r.catalog.Has(assets.ScriptName) {
		p, err := r.extractor.Extract(assets.ScriptName)
		if err == nil {
			return p
		}
		r.logger.Warn().Err(err).Msg("Script extraction failed")
	}

	return DevScriptPath()
}

// firstExisting returns the first candidate present on disk. Off windows,
// hits are canonicalized when possible.
func (r *Resolver) firstExisting(candidates []string) (string, bool) {
	for _, c := range candidates {
		if !exists(c) {
			continue
		}
		if r.opts.GOOS == "windows" {
			return c, true
		}
		return canonical(c), true
	}
	return "", false
}

func exists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

func canonical(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs
	}
	return resolved
}
