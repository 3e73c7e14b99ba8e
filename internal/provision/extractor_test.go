package provision

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf2excel/internal/assets"
	"github.com/spherical/pdf2excel/internal/domain"
)

func testCatalog(t *testing.T) *assets.Catalog {
	t.Helper()
	c, err := assets.NewCatalog(fstest.MapFS{
		"pdf_processor.py":         {Data: []byte("print('订单')\n")},
		"python/bin/python3":       {Data: []byte("#!/bin/sh\n")},
		"python/lib/os.py":         {Data: []byte("# os\n")},
		"python/lib/site-packages": {Mode: fs.ModeDir | 0o755},
	})
	require.NoError(t, err)
	return c
}

func TestExtract_WritesContentVerbatim(t *testing.T) {
	root := filepath.Join(t.TempDir(), "pdf2excel")
	ex := NewExtractor(testCatalog(t), root, nil)

	path, err := ex.Extract("pdf_processor.py")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "pdf_processor.py"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "print('订单')\n", string(data))
}

func TestExtract_IsIdempotent(t *testing.T) {
	root := t.TempDir()
	ex := NewExtractor(testCatalog(t), root, nil)

	first, err := ex.Extract("pdf_processor.py")
	require.NoError(t, err)
	before, err := os.ReadFile(first)
	require.NoError(t, err)

	second, err := ex.Extract("pdf_processor.py")
	require.NoError(t, err)
	after, err := os.ReadFile(second)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, after)
}

func TestExtract_ExistingTargetIsNeverRewritten(t *testing.T) {
	root := t.TempDir()
	ex := NewExtractor(testCatalog(t), root, nil)

	target := ex.Target("pdf_processor.py")
	require.NoError(t, os.WriteFile(target, []byte("drifted"), 0o644))

	path, err := ex.Extract("pdf_processor.py")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "drifted", string(data))
}

func TestExtract_ExistingTargetSkipsCatalog(t *testing.T) {
	root := t.TempDir()
	ex := NewExtractor(testCatalog(t), root, nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, "local-only.py"), nil, 0o644))

	_, err := ex.Extract("local-only.py")
	assert.NoError(t, err)
}

func TestExtract_MissingAsset(t *testing.T) {
	ex := NewExtractor(testCatalog(t), t.TempDir(), nil)

	_, err := ex.Extract("missing.py")
	require.Error(t, err)
	assert.Equal(t, domain.KindExtraction, domain.KindOf(err))
}

func TestExtract_RootCannotBeCreated(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	ex := NewExtractor(testCatalog(t), filepath.Join(blocker, "cache"), nil)
	_, err := ex.Extract("pdf_processor.py")
	require.Error(t, err)
	assert.Equal(t, domain.KindExtraction, domain.KindOf(err))
}

func TestExtract_DirectoryWithoutTrailingSeparator(t *testing.T) {
	root := t.TempDir()
	ex := NewExtractor(testCatalog(t), root, nil)

	path, err := ex.Extract("python/lib/site-packages")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestExtract_ExecutableBit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no exec bit on windows")
	}
	ex := NewExtractor(testCatalog(t), t.TempDir(), nil)

	path, err := ex.Extract("python/bin/python3")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o100)
}

func TestExtractDirectory(t *testing.T) {
	root := t.TempDir()
	ex := NewExtractor(testCatalog(t), root, nil)

	require.NoError(t, ex.ExtractDirectory("python/"))

	for _, rel := range []string{"python/bin/python3", "python/lib/os.py"} {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		assert.NoError(t, err, rel)
	}

	// Empty directories in the catalog are materialized too.
	info, err := os.Stat(filepath.Join(root, "python", "lib", "site-packages"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(root, "pdf_processor.py"))
	assert.True(t, os.IsNotExist(err), "files outside the prefix are not extracted")
}

func TestExtractDirectory_UnknownPrefix(t *testing.T) {
	ex := NewExtractor(testCatalog(t), t.TempDir(), nil)

	err := ex.ExtractDirectory("nope/")
	assert.Equal(t, domain.KindExtraction, domain.KindOf(err))
}

func TestExtract_ConcurrentCallsAgree(t *testing.T) {
	root := t.TempDir()
	ex := NewExtractor(testCatalog(t), root, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ex.Extract("pdf_processor.py")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files are left behind")
	assert.Equal(t, "pdf_processor.py", entries[0].Name())
}

func TestPurge(t *testing.T) {
	root := filepath.Join(t.TempDir(), "cache")
	ex := NewExtractor(testCatalog(t), root, nil)

	_, err := ex.Extract("pdf_processor.py")
	require.NoError(t, err)

	require.NoError(t, ex.Purge())
	_, err = os.Stat(root)
	assert.True(t, os.IsNotExist(err))

	// Purging an absent cache is fine.
	assert.NoError(t, ex.Purge())
}

func TestPurge_RefusesUnsafeRoots(t *testing.T) {
	fsRoot, err := filepath.Abs(string(filepath.Separator))
	require.NoError(t, err)

	for name, root := range map[string]string{
		"empty":           "",
		"filesystem root": fsRoot,
		"temp dir":        os.TempDir(),
		"temp dir parent": filepath.Join(os.TempDir(), "pdf2excel", ".."),
	} {
		t.Run(name, func(t *testing.T) {
			err := NewExtractor(testCatalog(t), root, nil).Purge()
			require.Error(t, err)
			assert.Equal(t, domain.KindExtraction, domain.KindOf(err))
		})
	}

	_, err = os.Stat(os.TempDir())
	assert.NoError(t, err)
}

func TestDefaultRoot(t *testing.T) {
	assert.Equal(t, filepath.Join(os.TempDir(), "pdf2excel"), DefaultRoot("pdf2excel"))
}
