// Package bridgetest provides a fake interpreter for bridge tests. The fake
// is the running test binary itself: the "script" handed to it is a JSON
// Directive describing what the process should print and how it should
// exit.
//
// Packages using it call RunIfHelper first thing in TestMain:
//
//	func TestMain(m *testing.M) {
//		bridgetest.RunIfHelper()
//		os.Exit(m.Run())
//	}
package bridgetest

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spherical/pdf2excel/internal/resolve"
)

// HelperEnv switches a test binary into fake interpreter mode.
const HelperEnv = "PDF2EXCEL_BRIDGETEST_HELPER"

// Directive scripts one fake interpreter run.
type Directive struct {
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
	// StderrBytes appends that many bytes of filler to stderr.
	StderrBytes int `json:"stderr_bytes,omitempty"`
	// Sleep delays output, after stdin has been consumed.
	Sleep time.Duration `json:"sleep,omitempty"`
	// RequestFile receives the raw request bytes read from stdin.
	RequestFile string `json:"request_file,omitempty"`
	// EnvFile receives the process environment, one entry per line.
	EnvFile string `json:"env_file,omitempty"`
}

// Script writes d to a temp file and returns an environment whose
// interpreter is the current test binary. The helper switch is set for
// the duration of the test.
func Script(t testing.TB, d Directive) resolve.Environment {
	t.Helper()

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal directive: %v", err)
	}
	path := filepath.Join(t.TempDir(), "pdf_processor.py")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write directive: %v", err)
	}

	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("locate test binary: %v", err)
	}

	t.Setenv(HelperEnv, "1")
	return resolve.Environment{Interpreter: exe, Script: path}
}

// Respond is a shorthand for a directive that prints v as JSON and exits 0.
func Respond(t testing.TB, v any) resolve.Environment {
	t.Helper()
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return Script(t, Directive{Stdout: string(out)})
}

// RunIfHelper acts as the fake interpreter and exits when the helper
// switch is set. It returns immediately otherwise.
func RunIfHelper() {
	if os.Getenv(HelperEnv) != "1" {
		return
	}
	os.Exit(runHelper())
}

func runHelper() int {
	if len(os.Args) < 2 {
		os.Stderr.WriteString("bridgetest: missing directive path\n")
		return 2
	}

	raw, err := os.ReadFile(os.Args[1])
	if err != nil {
		os.Stderr.WriteString("bridgetest: " + err.Error() + "\n")
		return 2
	}
	var d Directive
	if err := json.Unmarshal(raw, &d); err != nil {
		os.Stderr.WriteString("bridgetest: " + err.Error() + "\n")
		return 2
	}

	request, err := io.ReadAll(os.Stdin)
	if err != nil {
		os.Stderr.WriteString("bridgetest: " + err.Error() + "\n")
		return 2
	}
	if d.RequestFile != "" {
		if err := os.WriteFile(d.RequestFile, request, 0o644); err != nil {
			return 2
		}
	}
	if d.EnvFile != "" {
		if err := os.WriteFile(d.EnvFile, []byte(strings.Join(os.Environ(), "\n")), 0o644); err != nil {
			return 2
		}
	}

	if d.Sleep > 0 {
		time.Sleep(d.Sleep)
	}

	os.Stdout.WriteString(d.Stdout)
	os.Stderr.WriteString(d.Stderr)
	if d.StderrBytes > 0 {
		os.Stderr.WriteString(strings.Repeat("x", d.StderrBytes))
	}
	return d.ExitCode
}
