package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/pdf2excel/internal/domain"
)

// onePage is a minimal single-page document.
const onePage = `%PDF-1.4
1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj
2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj
3 0 obj << /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >> endobj
trailer << /Root 1 0 R >>
%%EOF
`

type fixedPages struct {
	n   int
	err error
}

func (f fixedPages) PageCount(context.Context, string) (int, error) { return f.n, f.err }

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidatePDFPath(t *testing.T) {
	v := NewValidator(nil)
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty", "  ", true},
		{"missing", filepath.Join(dir, "missing.pdf"), true},
		{"directory", dir, true},
		{"wrong extension", writeFile(t, "notes.txt", "x"), true},
		{"pdf", writeFile(t, "订单.pdf", onePage), false},
		{"upper-case extension", writeFile(t, "ORDER.PDF", onePage), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidatePDFPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, domain.KindValidation, domain.KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	v := NewValidator(nil)
	dir := t.TempDir()

	assert.NoError(t, v.ValidateOutputPath(filepath.Join(dir, "out.xlsx")))
	assert.Error(t, v.ValidateOutputPath(""))
	assert.Error(t, v.ValidateOutputPath(filepath.Join(dir, "out.csv")))
	assert.Error(t, v.ValidateOutputPath(filepath.Join(dir, "nope", "out.xlsx")))
}

func TestPreflight(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "order.pdf", onePage)

	assert.NoError(t, NewPreflight(fixedPages{n: 3}, nil).Check(ctx, path))

	err := NewPreflight(fixedPages{n: 0}, nil).Check(ctx, path)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	boom := domain.ValidationError("failed to open PDF", errors.New("corrupt"))
	err = NewPreflight(fixedPages{err: boom}, nil).Check(ctx, path)
	assert.ErrorIs(t, err, boom)

	err = NewPreflight(fixedPages{n: 1}, nil).Check(ctx, writeFile(t, "a.txt", ""))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err), "path validation runs before the page count")
}

func TestInspector_PageCount(t *testing.T) {
	n, err := NewInspector().PageCount(context.Background(), writeFile(t, "order.pdf", onePage))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInspector_Garbage(t *testing.T) {
	_, err := NewInspector().PageCount(context.Background(), writeFile(t, "junk.pdf", "definitely not a pdf"))
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
