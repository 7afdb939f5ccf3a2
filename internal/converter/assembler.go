package converter

import (
	"bytes"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

// DefaultCreator is written as the PDF /Creator entry.
const DefaultCreator = "image_to_pdf"

// Assembler builds one PDF per call from an ordered list of images.
// The zero value is usable. An Assembler holds no per-run state, but a single run is
// strictly sequential and is not meant to be shared by concurrent callers of one session.
type Assembler struct {
	Creator string           // PDF /Creator entry, DefaultCreator when empty
	Now     func() time.Time // Clock for a missing creation date, time.Now when nil
}

// NewAssembler returns an Assembler with default settings.
func NewAssembler() *Assembler {
	return &Assembler{Creator: DefaultCreator, Now: time.Now}
}

// Assemble converts images with the default Assembler.
func Assemble(images []SourceImage, quality Quality, meta DocumentMetadata, onProgress ProgressFunc) (*ConversionResult, error) {
	return NewAssembler().Assemble(images, quality, meta, onProgress)
}

// Assemble creates one page per image, in order, each sized to the image's pixel
// dimensions times the quality scale factor, with the image drawn full-bleed.
// onProgress, if not nil, is called after every page with round(100*(i+1)/N).
// Any decode failure aborts the run and no result is returned.
func (a *Assembler) Assemble(images []SourceImage, quality Quality, meta DocumentMetadata, onProgress ProgressFunc) (*ConversionResult, error) {
	if len(images) == 0 {
		return nil, &UsageError{Cause: ErrNoImages}
	}

	quality = ParseQuality(string(quality))
	factor := ScaleFactor(quality)
	meta = meta.withDefaults(a.now())

	pdf := gofpdf.New("P", "pt", "A4", "") // Default page size, actual size set per image
	pdf.SetTitle(meta.Title, !isASCII(meta.Title))
	pdf.SetAuthor(meta.Author, !isASCII(meta.Author))
	pdf.SetCreator(a.creator(), false)
	pdf.SetCreationDate(meta.CreationDate)

	total := len(images)
	for i, src := range images {
		embeddable, err := DecodeSource(src)
		if err != nil {
			return nil, err
		}

		width := float64(embeddable.Width) * factor
		height := float64(embeddable.Height) * factor

		if err := addImagePage(pdf, i, embeddable, width, height); err != nil {
			return nil, err
		}

		if onProgress != nil {
			onProgress(ProgressPercent(i+1, total))
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, &SerializationError{Stage: "writing document", Cause: err}
	}

	return &ConversionResult{
		PDF:       out.Bytes(),
		Metadata:  meta,
		PageCount: total,
		Quality:   quality,
	}, nil
}

// addImagePage appends a page of exactly width x height points and draws img over it.
func addImagePage(pdf *gofpdf.Fpdf, index int, img *EmbeddableImage, width, height float64) error {
	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: width, Ht: height})
	if pdf.Err() {
		return &SerializationError{Stage: fmt.Sprintf("adding page %d", index+1), Cause: pdf.Error()}
	}

	imageName := fmt.Sprintf("image%d", index)
	opts := gofpdf.ImageOptions{ImageType: string(img.Format), ReadDpi: false}
	pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(img.Data))
	if pdf.Err() {
		return &SerializationError{Stage: fmt.Sprintf("registering image for page %d", index+1), Cause: pdf.Error()}
	}

	pdf.ImageOptions(imageName, 0, 0, width, height, false, opts, 0, "")
	if pdf.Err() {
		return &SerializationError{Stage: fmt.Sprintf("placing image on page %d", index+1), Cause: pdf.Error()}
	}
	return nil
}

func (a *Assembler) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *Assembler) creator() string {
	if a.Creator == "" {
		return DefaultCreator
	}
	return a.Creator
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
