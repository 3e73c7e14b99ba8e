package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures crossing the bridge boundary
type ErrorKind string

const (
	KindSpawn      ErrorKind = "spawn"
	KindIO         ErrorKind = "io"
	KindProcess    ErrorKind = "process"
	KindProtocol   ErrorKind = "protocol"
	KindScript     ErrorKind = "script"
	KindValidation ErrorKind = "validation"
	KindExtraction ErrorKind = "extraction"
	KindTimeout    ErrorKind = "timeout"
	KindCancelled  ErrorKind = "cancelled"
	KindConfig     ErrorKind = "config"
)

// MsgNoRows is the legacy message surfaced when a parse yields no table rows.
const MsgNoRows = "未能从PDF中提取到有效的表格数据"

// Error is a tagged error carrying the failure kind and, for process
// failures, the exit code and captured stderr.
type Error struct {
	Kind     ErrorKind
	Message  string
	Err      error
	ExitCode int
	Detail   string
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new tagged error
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func SpawnError(message string, err error) *Error {
	return NewError(KindSpawn, message, err)
}

func IOError(message string, err error) *Error {
	return NewError(KindIO, message, err)
}

// ProcessError reports a non-zero (or unknown, -1) exit code. The message
// embeds the code and the verbatim stderr text.
func ProcessError(exitCode int, stderr string) *Error {
	return &Error{
		Kind:     KindProcess,
		Message:  fmt.Sprintf("interpreter process failed: %d (stderr: %s)", exitCode, stderr),
		ExitCode: exitCode,
		Detail:   stderr,
	}
}

// ProtocolError reports output that is not a valid response document.
func ProtocolError(output string, err error) *Error {
	msg := fmt.Sprintf("failed to parse interpreter output (output: %s)", output)
	if err != nil {
		msg = fmt.Sprintf("failed to parse interpreter output: %v (output: %s)", err, output)
	}
	return &Error{
		Kind:    KindProtocol,
		Message: msg,
		Err:     err,
		Detail:  output,
	}
}

// ScriptError reports an explicit error field in a well-formed response.
func ScriptError(message string) *Error {
	return NewError(KindScript, message, nil)
}

func ValidationError(message string, err error) *Error {
	return NewError(KindValidation, message, err)
}

func ExtractionError(message string, err error) *Error {
	return NewError(KindExtraction, message, err)
}

func TimeoutError(message string, err error) *Error {
	return NewError(KindTimeout, message, err)
}

func CancelledError(message string, err error) *Error {
	return NewError(KindCancelled, message, err)
}

func ConfigError(message string, err error) *Error {
	return NewError(KindConfig, message, err)
}

// KindOf returns the kind of the first tagged error in err's chain, or ""
// when err carries none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Message flattens err into the single human-readable string surfaced to
// hosts. Tagged errors render their message only; script errors therefore
// come back exactly as the script reported them.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
