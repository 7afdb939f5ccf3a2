package pdfinfo

import (
	"bytes"
	"errors"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPDF(t *testing.T, sizes ...gofpdf.SizeType) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "pt", "A4", "")
	for _, size := range sizes {
		pdf.AddPageFormat("P", size)
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestInspect(t *testing.T) {
	data := buildPDF(t, gofpdf.SizeType{Wd: 300, Ht: 200}, gofpdf.SizeType{Wd: 120.5, Ht: 480})

	info, err := Inspect(data)
	require.NoError(t, err)

	assert.Equal(t, 2, info.PageCount)
	require.Len(t, info.Pages, 2)
	assert.InDelta(t, 300, info.Pages[0].Width, 0.01)
	assert.InDelta(t, 200, info.Pages[0].Height, 0.01)
	assert.InDelta(t, 120.5, info.Pages[1].Width, 0.01)
	assert.InDelta(t, 480, info.Pages[1].Height, 0.01)
}

func TestInspect_Rejects(t *testing.T) {
	_, err := Inspect(nil)
	assert.True(t, errors.Is(err, ErrEmptyDocument))

	_, err = Inspect([]byte("not a pdf at all"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(buildPDF(t, gofpdf.SizeType{Wd: 100, Ht: 100})))
	assert.True(t, errors.Is(Validate(nil), ErrEmptyDocument))
	assert.Error(t, Validate([]byte("%PDF-1.4\ngarbage")))
}
