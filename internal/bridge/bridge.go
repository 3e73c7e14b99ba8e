// Package bridge runs the processing script as a child process and
// exchanges exactly one JSON request and one JSON response with it over
// stdio.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spherical/pdf2excel/internal/domain"
	"github.com/spherical/pdf2excel/internal/observability"
	"github.com/spherical/pdf2excel/internal/resolve"
)

const (
	CommandParse  = "parse"
	CommandExport = "export"

	// DefaultWaitDelay bounds how long Wait blocks on pipes after the
	// process has been killed.
	DefaultWaitDelay = 2 * time.Second
)

// Request is a command document sent to the script.
type Request interface {
	Name() string
}

// ParseRequest asks the script to extract order rows from a PDF.
type ParseRequest struct {
	Command string `json:"command"`
	Path    string `json:"path"`
}

func NewParseRequest(path string) ParseRequest {
	return ParseRequest{Command: CommandParse, Path: path}
}

func (r ParseRequest) Name() string { return r.Command }

// ExportRequest asks the script to write rows to a spreadsheet.
type ExportRequest struct {
	Command string             `json:"command"`
	Path    string             `json:"path"`
	Data    []domain.OrderItem `json:"data"`
	Info    domain.PdfInfo     `json:"info"`
}

func NewExportRequest(path string, items []domain.OrderItem, info domain.PdfInfo) ExportRequest {
	if items == nil {
		items = []domain.OrderItem{}
	}
	return ExportRequest{Command: CommandExport, Path: path, Data: items, Info: info}
}

func (r ExportRequest) Name() string { return r.Command }

// Response is a successfully decoded response document.
type Response map[string]json.RawMessage

// Decode unmarshals field into v. It reports false when the field is
// absent or null.
func (r Response) Decode(field string, v any) (bool, error) {
	raw, ok := r[field]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode %q: %w", field, err)
	}
	return true, nil
}

// Options tunes process handling.
type Options struct {
	// Env is appended to the inherited environment.
	Env []string
	// WaitDelay defaults to DefaultWaitDelay.
	WaitDelay time.Duration
}

// Bridge spawns one interpreter process per Invoke.
type Bridge struct {
	env    resolve.Environment
	opts   Options
	logger *observability.Logger
}

// New creates a bridge for the given resolved environment.
func New(env resolve.Environment, logger *observability.Logger, opts Options) *Bridge {
	if logger == nil {
		logger = observability.Nop()
	}
	if opts.WaitDelay <= 0 {
		opts.WaitDelay = DefaultWaitDelay
	}
	return &Bridge{
		env:    env,
		opts:   opts,
		logger: logger.WithComponent("bridge"),
	}
}

// Environment returns the locations this bridge runs.
func (b *Bridge) Environment() resolve.Environment {
	return b.env
}

// Invoke sends req to a fresh interpreter process and returns the decoded
// response document. Every failure is a *domain.Error.
func (b *Bridge) Invoke(ctx context.Context, req Request) (Response, error) {
	id := uuid.NewString()
	start := time.Now()

	resp, exitCode, err := b.invoke(ctx, req)

	ev := b.logger.Debug()
	if err != nil {
		ev = b.logger.Warn().Str("kind", string(domain.KindOf(err))).Err(err)
	}
	ev.Str("invocation_id", id).
		Str("command", req.Name()).
		Int("exit_code", exitCode).
		Dur("duration", time.Since(start)).
		Msg("Interpreter call finished")

	return resp, err
}

func (b *Bridge) invoke(ctx context.Context, req Request) (Response, int, error) {
	if _, err := os.Stat(b.env.Script); err != nil {
		return nil, -1, domain.SpawnError(fmt.Sprintf("processing script not found: %s", b.env.Script), err)
	}

	payload, err := encodeRequest(req)
	if err != nil {
		return nil, -1, domain.IOError("failed to encode request", err)
	}

	cmd := exec.CommandContext(ctx, b.env.Interpreter, b.env.Script)
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")
	cmd.Env = append(cmd.Env, b.opts.Env...)
	cmd.WaitDelay = b.opts.WaitDelay
	configureProcess(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, -1, domain.IOError("failed to open interpreter stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, -1, domain.IOError("failed to open interpreter stdout", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, -1, domain.IOError("failed to open interpreter stderr", err)
	}

	if err := cmd.Start(); err != nil {
		if cerr := contextError(ctx); cerr != nil {
			return nil, -1, cerr
		}
		return nil, -1, domain.SpawnError(
			fmt.Sprintf("failed to start interpreter: %v (path: %s)", err, b.env.Interpreter), err)
	}

	// Write and drain concurrently so a large response cannot deadlock
	// against an unread request.
	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, werr := stdin.Write(payload)
		if cerr := stdin.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return domain.IOError("failed to write to interpreter stdin", werr)
		}
		return nil
	})
	g.Go(func() error {
		if _, rerr := io.Copy(&outBuf, stdout); rerr != nil {
			return domain.IOError("failed to read interpreter stdout", rerr)
		}
		return nil
	})
	g.Go(func() error {
		if _, rerr := io.Copy(&errBuf, stderr); rerr != nil {
			return domain.IOError("failed to read interpreter stderr", rerr)
		}
		return nil
	})
	ioErr := g.Wait()
	waitErr := cmd.Wait()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	// A process that finished on its own keeps its result even if the
	// deadline passed right after.
	if waitErr != nil {
		if cerr := contextError(ctx); cerr != nil {
			return nil, exitCode, cerr
		}
	}

	if exitCode != 0 {
		return nil, exitCode, domain.ProcessError(exitCode, errBuf.String())
	}
	if ioErr != nil {
		return nil, exitCode, ioErr
	}
	if waitErr != nil {
		return nil, exitCode, domain.IOError("failed to wait for interpreter", waitErr)
	}

	resp, err := decodeResponse(outBuf.Bytes())
	if err != nil {
		return nil, exitCode, err
	}
	return resp, exitCode, nil
}

// contextError classifies a done context, or returns nil.
func contextError(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return domain.TimeoutError("interpreter call timed out", err)
	default:
		return domain.CancelledError("interpreter call cancelled", err)
	}
}

func encodeRequest(req Request) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeResponse(out []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, domain.ProtocolError(string(out), err)
	}
	if resp == nil {
		return nil, domain.ProtocolError(string(out), nil)
	}

	if raw, ok := resp["error"]; ok {
		var v any
		msg, ok := "", false
		if json.Unmarshal(raw, &v) == nil {
			msg, ok = v.(string)
		}
		if !ok {
			msg = "Unknown error"
		}
		return nil, domain.ScriptError(msg)
	}
	return resp, nil
}
