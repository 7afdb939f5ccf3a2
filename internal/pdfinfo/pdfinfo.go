// Package pdfinfo reads back PDFs produced by the converter to check their structure.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from creating a configuration directory in the user's home.
	model.ConfigPath = "disable"
}

// ErrEmptyDocument is returned for a zero-length input.
var ErrEmptyDocument = errors.New("pdf document is empty")

// PageSize is a page's media box size in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Info summarises the page structure of a PDF.
type Info struct {
	PageCount int        `json:"page_count"`
	Pages     []PageSize `json:"pages"`
}

func newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Inspect returns the page count and page sizes of pdf.
func Inspect(pdf []byte) (*Info, error) {
	if len(pdf) == 0 {
		return nil, ErrEmptyDocument
	}

	count, err := api.PageCount(bytes.NewReader(pdf), newConfig())
	if err != nil {
		return nil, fmt.Errorf("could not count pages: %w", err)
	}

	dims, err := api.PageDims(bytes.NewReader(pdf), newConfig())
	if err != nil {
		return nil, fmt.Errorf("could not read page dimensions: %w", err)
	}

	info := &Info{PageCount: count, Pages: make([]PageSize, len(dims))}
	for i, d := range dims {
		info.Pages[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	return info, nil
}

// Validate checks pdf against the PDF specification in relaxed mode.
func Validate(pdf []byte) error {
	if len(pdf) == 0 {
		return ErrEmptyDocument
	}
	if err := api.Validate(bytes.NewReader(pdf), newConfig()); err != nil {
		return fmt.Errorf("pdf validation failed: %w", err)
	}
	return nil
}
