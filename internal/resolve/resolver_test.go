package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf2excel/internal/assets"
	"github.com/spherical/pdf2excel/internal/provision"
)

type layout struct {
	cache  string
	exeDir string
}

func newLayout(t *testing.T) layout {
	t.Helper()
	base := t.TempDir()
	l := layout{
		cache:  filepath.Join(base, "tmp", "pdf2excel"),
		exeDir: filepath.Join(base, "App", "MacOS"),
	}
	require.NoError(t, os.MkdirAll(l.exeDir, 0o755))
	return l
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o755))
}

func expectedPath(t *testing.T, goos, p string) string {
	t.Helper()
	if goos == "windows" {
		return p
	}
	return canonical(p)
}

func bundleCatalog(t *testing.T, files ...string) *assets.Catalog {
	t.Helper()
	fsys := fstest.MapFS{}
	for _, f := range files {
		fsys[f] = &fstest.MapFile{Data: []byte("bundled " + f)}
	}
	c, err := assets.NewCatalog(fsys)
	require.NoError(t, err)
	return c
}

func TestInterpreterCandidates_Order(t *testing.T) {
	assert.Equal(t, []string{
		filepath.Join("/c", "python", "bin", "python3"),
		filepath.Join("/app", "Resources", "python", "bin", "python3"),
		filepath.Join("/app", "MacOS", "python", "bin", "python3"),
		filepath.Join("/app", "MacOS", "python3"),
	}, InterpreterCandidates("darwin", "/c", filepath.Join("/app", "MacOS")))

	assert.Equal(t, []string{
		filepath.Join("/c", "python", "python.exe"),
		filepath.Join("/app", "python", "python.exe"),
		filepath.Join("/app", "python.exe"),
	}, InterpreterCandidates("windows", "/c", "/app"))

	assert.Equal(t, []string{filepath.Join("/c", "python", "bin", "python3")},
		InterpreterCandidates("linux", "/c", ""))
}

func TestScriptCandidates_Order(t *testing.T) {
	assert.Equal(t, []string{
		filepath.Join("/c", "pdf_processor.py"),
		filepath.Join("/app", "Resources", "pdf_processor.py"),
		filepath.Join("/app", "MacOS", "pdf_processor.py"),
		filepath.Join("/app", "MacOS", "resources", "pdf_processor.py"),
	}, ScriptCandidates("linux", "/c", filepath.Join("/app", "MacOS")))
}

func TestResolver_ReturnsExactlyTheNthInterpreterCandidate(t *testing.T) {
	for _, goos := range []string{"linux", "windows"} {
		l := newLayout(t)
		candidates := InterpreterCandidates(goos, l.cache, l.exeDir)

		for n := range candidates {
			t.Run(fmt.Sprintf("%s/candidate-%d", goos, n), func(t *testing.T) {
				l := newLayout(t)
				candidates := InterpreterCandidates(goos, l.cache, l.exeDir)
				touch(t, candidates[n])

				ex := provision.NewExtractor(bundleCatalog(t), l.cache, nil)
				r := New(Options{GOOS: goos, ExeDir: l.exeDir}, nil, ex, nil)

				assert.Equal(t, expectedPath(t, goos, candidates[n]), r.Environment().Interpreter)
			})
		}
	}
}

func TestResolver_ReturnsExactlyTheNthScriptCandidate(t *testing.T) {
	l := newLayout(t)
	for n := range ScriptCandidates("linux", l.cache, l.exeDir) {
		t.Run(fmt.Sprintf("candidate-%d", n), func(t *testing.T) {
			l := newLayout(t)
			candidates := ScriptCandidates("linux", l.cache, l.exeDir)
			touch(t, candidates[n])

			ex := provision.NewExtractor(bundleCatalog(t, assets.ScriptName), l.cache, nil)
			r := New(Options{GOOS: "linux", ExeDir: l.exeDir}, bundleCatalog(t, assets.ScriptName), ex, nil)

			assert.Equal(t, expectedPath(t, "linux", candidates[n]), r.Environment().Script)
		})
	}
}

func TestResolver_FirstExistingCandidateWins(t *testing.T) {
	l := newLayout(t)
	candidates := ScriptCandidates("linux", l.cache, l.exeDir)
	touch(t, candidates[1])
	touch(t, candidates[3])

	r := New(Options{GOOS: "linux", ExeDir: l.exeDir}, nil, provision.NewExtractor(bundleCatalog(t), l.cache, nil), nil)
	assert.Equal(t, canonical(candidates[1]), r.Environment().Script)
}

func TestResolver_ExtractsScriptFromCatalog(t *testing.T) {
	l := newLayout(t)
	catalog := bundleCatalog(t, assets.ScriptName)
	ex := provision.NewExtractor(catalog, l.cache, nil)

	r := New(Options{GOOS: "linux", ExeDir: l.exeDir}, catalog, ex, nil)
	env := r.Environment()

	assert.Equal(t, filepath.Join(l.cache, assets.ScriptName), env.Script)
	data, err := os.ReadFile(env.Script)
	require.NoError(t, err)
	assert.Equal(t, "bundled "+assets.ScriptName, string(data))
}

func TestResolver_ExtractsInterpreterBundle(t *testing.T) {
	l := newLayout(t)
	catalog := bundleCatalog(t, "python/bin/python3", "python/lib/os.py")
	ex := provision.NewExtractor(catalog, l.cache, nil)

	r := New(Options{GOOS: "linux", ExeDir: l.exeDir}, catalog, ex, nil)
	env := r.Environment()

	assert.Equal(t, filepath.Join(l.cache, "python", "bin", "python3"), env.Interpreter)
	_, err := os.Stat(filepath.Join(l.cache, "python", "lib", "os.py"))
	assert.NoError(t, err, "the whole interpreter bundle is extracted")
}

func TestResolver_Fallbacks(t *testing.T) {
	l := newLayout(t)
	ex := provision.NewExtractor(bundleCatalog(t), l.cache, nil)

	r := New(Options{GOOS: "linux", ExeDir: l.exeDir}, bundleCatalog(t), ex, nil)
	env := r.Environment()

	assert.Equal(t, "python3", env.Interpreter)
	assert.Equal(t, DevScriptPath(), env.Script)

	win := New(Options{GOOS: "windows", ExeDir: l.exeDir}, nil, ex, nil)
	assert.Equal(t, "python", win.Environment().Interpreter)
}

func TestResolver_Overrides(t *testing.T) {
	l := newLayout(t)
	touch(t, filepath.Join(l.cache, assets.ScriptName))

	r := New(Options{
		GOOS:                "linux",
		ExeDir:              l.exeDir,
		InterpreterOverride: "/opt/python/bin/python3.12",
		ScriptOverride:      "/srv/pdf_processor.py",
	}, nil, provision.NewExtractor(bundleCatalog(t), l.cache, nil), nil)

	env := r.Environment()
	assert.Equal(t, "/opt/python/bin/python3.12", env.Interpreter)
	assert.Equal(t, "/srv/pdf_processor.py", env.Script)
}

func TestResolver_ResolvesOnce(t *testing.T) {
	l := newLayout(t)
	candidates := ScriptCandidates("linux", l.cache, l.exeDir)
	touch(t, candidates[3])

	r := New(Options{GOOS: "linux", ExeDir: l.exeDir}, nil, provision.NewExtractor(bundleCatalog(t), l.cache, nil), nil)
	first := r.Environment()

	// An earlier candidate appearing later is not picked up mid-run.
	touch(t, candidates[0])
	assert.Equal(t, first, r.Environment())
}

func TestEnvironment_Exists(t *testing.T) {
	dir := t.TempDir()
	interp := filepath.Join(dir, "python3")
	script := filepath.Join(dir, "pdf_processor.py")

	env := Environment{Interpreter: interp, Script: script}
	assert.False(t, env.Exists())

	touch(t, interp)
	assert.False(t, env.Exists())

	touch(t, script)
	assert.True(t, env.Exists())

	// Bare names are not looked up on PATH.
	t.Chdir(dir)
	assert.False(t, Environment{Interpreter: "no-such-python", Script: script}.Exists())
}
