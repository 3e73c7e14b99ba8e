package pdf

import (
	"context"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical/pdf2excel/internal/domain"
)

// Inspector reads document structure with MuPDF.
type Inspector struct{}

// NewInspector creates a new inspector instance
func NewInspector() *Inspector {
	return &Inspector{}
}

// PageCount opens the document and returns its number of pages.
func (i *Inspector) PageCount(ctx context.Context, path string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	doc, err := fitz.New(path)
	if err != nil {
		return 0, domain.ValidationError("failed to open PDF", err)
	}
	defer doc.Close()

	return doc.NumPage(), nil
}
