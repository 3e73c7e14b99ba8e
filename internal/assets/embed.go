package assets

import (
	"embed"
	"io/fs"
	"sync"
)

// ScriptName is the processing script's path inside the bundle.
const ScriptName = "pdf_processor.py"

// InterpreterBundle is the bundle directory holding a packaged interpreter.
// Release builds drop a relocatable Python distribution there before
// compiling; development builds ship the script only.
const InterpreterBundle = "python/"

//go:embed all:bundle
var bundleFS embed.FS

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	sub, err := fs.Sub(bundleFS, "bundle")
	if err != nil {
		return nil, err
	}
	return NewCatalog(sub)
})

// Default returns the catalog over the embedded bundle. It is built on
// first use and shared for the life of the process.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// InterpreterAsset returns the bundle path of the interpreter binary for goos.
func InterpreterAsset(goos string) string {
	if goos == "windows" {
		return "python/python.exe"
	}
	return "python/bin/python3"
}
