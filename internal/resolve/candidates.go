package resolve

import (
	"path/filepath"

	"github.com/spherical/pdf2excel/internal/assets"
)

// InterpreterCandidates lists interpreter locations in lookup order: the
// extraction cache first, then locations relative to the executable.
func InterpreterCandidates(goos, cacheDir, exeDir string) []string {
	var out []string
	if cacheDir != "" {
		out = append(out, filepath.Join(cacheDir, filepath.FromSlash(assets.InterpreterAsset(goos))))
	}
	if exeDir == "" {
		return out
	}

	if goos == "windows" {
		return append(out,
			filepath.Join(exeDir, "python", "python.exe"),
			filepath.Join(exeDir, "python.exe"),
		)
	}
	return append(out,
		filepath.Join(exeDir, "..", "Resources", "python", "bin", "python3"),
		filepath.Join(exeDir, "python", "bin", "python3"),
		filepath.Join(exeDir, "python3"),
	)
}

// ScriptCandidates lists processing script locations in lookup order.
func ScriptCandidates(goos, cacheDir, exeDir string) []string {
	var out []string
	if cacheDir != "" {
		out = append(out, filepath.Join(cacheDir, assets.ScriptName))
	}
	if exeDir == "" {
		return out
	}
	return append(out,
		filepath.Join(exeDir, "..", "Resources", assets.ScriptName),
		filepath.Join(exeDir, assets.ScriptName),
		filepath.Join(exeDir, "resources", assets.ScriptName),
	)
}

// BareInterpreter is the last-resort interpreter name, looked up on PATH
// by the operating system at spawn time.
func BareInterpreter(goos string) string {
	if goos == "windows" {
		return "python"
	}
	return "python3"
}

// DevScriptPath is the best-effort script location used when nothing else
// resolves. It is relative to the working directory of a source checkout.
func DevScriptPath() string {
	return filepath.Join("internal", "assets", "bundle", assets.ScriptName)
}
