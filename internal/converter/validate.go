package converter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultMaxFileSize is the upload size cap applied when none is configured.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// ValidateUpload checks a file at the upload boundary and returns its normalised type.
// maxSize <= 0 means DefaultMaxFileSize.
func ValidateUpload(filename, contentType string, size, maxSize int64) (MIMEType, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	mimeType, ok := NormalizeMIMEType(contentType)
	if !ok {
		return "", &ValidationError{Filename: filename, Reason: "Invalid file type"}
	}
	if size > maxSize {
		return "", &ValidationError{Filename: filename, Reason: fmt.Sprintf("File too large (max %s)", formatLimit(maxSize))}
	}
	if size == 0 {
		return "", &ValidationError{Filename: filename, Reason: "Empty file"}
	}
	return mimeType, nil
}

// formatLimit renders a size cap the way it is advertised to users ("10MB").
func formatLimit(n int64) string {
	if n%(1024*1024) == 0 {
		return fmt.Sprintf("%dMB", n/(1024*1024))
	}
	return strings.ReplaceAll(FormatSize(n), " ", "")
}

// ContentTypeFromFilename guesses a content type from the file extension.
// It returns "" for unknown extensions.
func ContentTypeFromFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return string(MIMEJPEG)
	case ".png":
		return string(MIMEPNG)
	case ".gif":
		return string(MIMEGIF)
	case ".webp":
		return string(MIMEWEBP)
	default:
		return ""
	}
}

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	unsafeFileRune = regexp.MustCompile(`[/\\"<>:|?*\x00-\x1f]`)
)

// OutputFilename derives a download name from a document title.
func OutputFilename(title string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = DefaultTitle
	}
	name = unsafeFileRune.ReplaceAllString(name, "")
	name = whitespaceRun.ReplaceAllString(name, "_")
	if name == "" {
		name = "converted"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
