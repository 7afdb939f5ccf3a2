package converter

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MIMEType is one of the image content types accepted for conversion.
type MIMEType string

const (
	MIMEJPEG MIMEType = "image/jpeg"
	MIMEPNG  MIMEType = "image/png"
	MIMEGIF  MIMEType = "image/gif"
	MIMEWEBP MIMEType = "image/webp"
)

// AcceptedMIMETypes lists the content types an upload may declare.
var AcceptedMIMETypes = []MIMEType{MIMEJPEG, MIMEPNG, MIMEGIF, MIMEWEBP}

// NormalizeMIMEType maps a declared content type onto a MIMEType.
// Parameters ("; charset=...") and case are ignored and "image/jpg" is treated as JPEG.
// The second return value is false when the type is not accepted.
func NormalizeMIMEType(contentType string) (MIMEType, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return MIMEJPEG, true
	case "image/png":
		return MIMEPNG, true
	case "image/gif":
		return MIMEGIF, true
	case "image/webp":
		return MIMEWEBP, true
	default:
		return MIMEType(ct), false
	}
}

// SourceImage is one uploaded image. Its ID is stable across reordering.
// The pipeline never modifies Data.
type SourceImage struct {
	ID       string
	Filename string
	Data     []byte
	MIMEType MIMEType
	Size     int64 // Original size in bytes
}

// NewSourceImage wraps raw image bytes with a fresh identity.
func NewSourceImage(filename string, mimeType MIMEType, data []byte) SourceImage {
	return SourceImage{
		ID:       uuid.NewString(),
		Filename: filename,
		Data:     data,
		MIMEType: mimeType,
		Size:     int64(len(data)),
	}
}

// Defaults applied to metadata fields left empty by the caller.
const (
	DefaultTitle  = "Converted PDF"
	DefaultAuthor = "Image to PDF Converter"
)

// DocumentMetadata is the information written to the PDF document info dictionary.
type DocumentMetadata struct {
	Title        string    `json:"title" yaml:"title"`
	Author       string    `json:"author" yaml:"author"`
	CreationDate time.Time `json:"creation_date" yaml:"creation_date"`
}

// withDefaults fills empty fields. now is used for a zero CreationDate.
// The creation date is returned in UTC, the zone the PDF date string is written in.
func (m DocumentMetadata) withDefaults(now time.Time) DocumentMetadata {
	if strings.TrimSpace(m.Title) == "" {
		m.Title = DefaultTitle
	}
	if strings.TrimSpace(m.Author) == "" {
		m.Author = DefaultAuthor
	}
	if m.CreationDate.IsZero() {
		m.CreationDate = now
	}
	m.CreationDate = m.CreationDate.UTC()
	return m
}

// ConversionResult is a complete PDF file plus the metadata embedded in it.
type ConversionResult struct {
	PDF       []byte
	Metadata  DocumentMetadata
	PageCount int
	Quality   Quality
}

// Size returns the length of the PDF in bytes.
func (r *ConversionResult) Size() int64 {
	return int64(len(r.PDF))
}

// ImageFormat is the encoding of an image that can be placed on a PDF page as is.
type ImageFormat string

const (
	FormatJPEG ImageFormat = "JPG"
	FormatPNG  ImageFormat = "PNG"
)

// EmbeddableImage is a decoded image ready to be registered with the PDF writer.
type EmbeddableImage struct {
	Data      []byte
	Format    ImageFormat
	Width     int
	Height    int
	Reencoded bool // False when Data is the caller's original byte stream
}
