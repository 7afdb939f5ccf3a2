package converter

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// bufferPool is used to reuse byte buffers for PNG re-encoding.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// Decode turns raw image bytes of the declared type into an image the PDF writer
// can embed. JPEG and PNG bytes are passed through; GIF and WebP are re-encoded as PNG.
func Decode(data []byte, mimeType MIMEType) (*EmbeddableImage, error) {
	if len(data) == 0 {
		return nil, errors.New("image data is empty")
	}

	switch mimeType {
	case MIMEJPEG:
		return passthrough(data, "jpeg", FormatJPEG)
	case MIMEPNG:
		if needsPNGNormalization(data) {
			return reencodePNG(data, "png")
		}
		return passthrough(data, "png", FormatPNG)
	case MIMEGIF:
		return reencodePNG(data, "gif")
	case MIMEWEBP:
		return reencodePNG(data, "webp")
	default:
		return nil, fmt.Errorf("unsupported content type %q", mimeType)
	}
}

// DecodeSource decodes src and attaches its identity to any failure.
func DecodeSource(src SourceImage) (*EmbeddableImage, error) {
	img, err := Decode(src.Data, src.MIMEType)
	if err != nil {
		return nil, &DecodeError{ImageID: src.ID, Filename: src.Filename, MIMEType: src.MIMEType, Cause: err}
	}
	return img, nil
}

// passthrough fully decodes the stream once so that truncated or mislabelled data is
// rejected here instead of producing a broken page, then returns the original bytes.
func passthrough(data []byte, wantFormat string, pdfFormat ImageFormat) (*EmbeddableImage, error) {
	img, formatName, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode %s stream: %w", wantFormat, err)
	}
	if formatName != wantFormat {
		return nil, fmt.Errorf("declared %s but data is %s", wantFormat, formatName)
	}
	b := img.Bounds()
	return &EmbeddableImage{
		Data:   data,
		Format: pdfFormat,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// reencodePNG decodes data, converts it to 8-bit NRGBA and encodes it as PNG.
func reencodePNG(data []byte, wantFormat string) (*EmbeddableImage, error) {
	decoded, formatName, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode %s image: %w", wantFormat, err)
	}
	if formatName != wantFormat {
		return nil, fmt.Errorf("declared %s but data is %s", wantFormat, formatName)
	}

	// imaging.Clone yields *image.NRGBA, which also drops 16-bit depth.
	nrgba := imaging.Clone(decoded)

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if err := imaging.Encode(buf, nrgba, imaging.PNG); err != nil {
		return nil, fmt.Errorf("could not re-encode %s image to png: %w", wantFormat, err)
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	b := nrgba.Bounds()
	return &EmbeddableImage{
		Data:      out,
		Format:    FormatPNG,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Reencoded: true,
	}, nil
}

// needsPNGNormalization reports whether a PNG uses 16-bit samples or Adam7 interlacing,
// neither of which the PDF writer embeds directly. Malformed headers return false and
// are rejected by the full decode that follows.
func needsPNGNormalization(data []byte) bool {
	// signature(8) + chunk length(4) + "IHDR"(4) + width(4) + height(4) + depth, color, compression, filter, interlace
	if len(data) < 29 || !bytes.Equal(data[:8], pngSignature) || string(data[12:16]) != "IHDR" {
		return false
	}
	if binary.BigEndian.Uint32(data[8:12]) < 13 {
		return false
	}
	bitDepth := data[24]
	interlace := data[28]
	return bitDepth == 16 || interlace != 0
}
