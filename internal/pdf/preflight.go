package pdf

import (
	"context"
	"fmt"

	"github.com/spherical/pdf2excel/internal/domain"
	"github.com/spherical/pdf2excel/internal/observability"
)

// PageCounter reports how many pages a document has.
type PageCounter interface {
	PageCount(ctx context.Context, path string) (int, error)
}

// Preflight rejects paths that are not readable PDFs with at least one
// page. It satisfies domain.Preflight.
type Preflight struct {
	validator *Validator
	pages     PageCounter
	logger    *observability.Logger
}

// NewPreflight combines path validation with a page count. A nil counter
// uses the MuPDF inspector.
func NewPreflight(pages PageCounter, logger *observability.Logger) *Preflight {
	if logger == nil {
		logger = observability.Nop()
	}
	if pages == nil {
		pages = NewInspector()
	}
	return &Preflight{
		validator: NewValidator(logger),
		pages:     pages,
		logger:    logger.WithComponent("preflight"),
	}
}

// Check validates the document at path.
func (p *Preflight) Check(ctx context.Context, path string) error {
	if err := p.validator.ValidatePDFPath(path); err != nil {
		return err
	}

	n, err := p.pages.PageCount(ctx, path)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ValidationError(fmt.Sprintf("PDF has no pages: %s", path), nil)
	}

	p.logger.Debug().Str("path", path).Int("pages", n).Msg("Preflight passed")
	return nil
}

var _ domain.Preflight = (*Preflight)(nil)
