// Package pdf checks input documents before an interpreter process is
// spent on them.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/pdf2excel/internal/domain"
	"github.com/spherical/pdf2excel/internal/observability"
)

// largeFileSize triggers a warning, not a rejection.
const largeFileSize = 100 * 1024 * 1024

// Validator provides input validation for PDF files
type Validator struct {
	logger *observability.Logger
}

// NewValidator creates a new validator instance
func NewValidator(logger *observability.Logger) *Validator {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Validator{logger: logger}
}

// ValidatePDFPath validates that a file path is valid and points to a PDF
func (v *Validator) ValidatePDFPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.ValidationError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".pdf" {
		return domain.ValidationError(fmt.Sprintf("file is not a PDF (has extension %s)", ext), nil)
	}

	if info.Size() > largeFileSize {
		v.logger.Warn().
			Str("path", path).
			Int("size_mb", int(info.Size()/(1024*1024))).
			Msg("PDF file is very large, processing may take a while")
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	file.Close()

	return nil
}

// ValidateOutputPath checks that a spreadsheet can be written at path.
func (v *Validator) ValidateOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.ValidationError("output path cannot be empty", nil)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" {
		return domain.ValidationError(fmt.Sprintf("output is not an .xlsx file (has extension %s)", ext), nil)
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return domain.ValidationError(fmt.Sprintf("output directory does not exist: %s", dir), err)
	}
	if !info.IsDir() {
		return domain.ValidationError(fmt.Sprintf("output directory is not a directory: %s", dir), nil)
	}
	return nil
}
