package converter

import (
	"fmt"
	"sync"
)

// Session is the state behind one user's conversion workflow: the ordered images and
// the chosen quality and metadata.
// All methods are safe for concurrent use; at most one conversion runs at a time.
type Session struct {
	mu          sync.Mutex
	assembler   *Assembler
	maxFileSize int64
	images      []SourceImage
	quality     Quality
	metadata    DocumentMetadata
	converting  bool
}

// NewSession returns an empty session. maxFileSize <= 0 means DefaultMaxFileSize.
func NewSession(assembler *Assembler, maxFileSize int64) *Session {
	if assembler == nil {
		assembler = NewAssembler()
	}
	return &Session{
		assembler:   assembler,
		maxFileSize: maxFileSize,
		quality:     DefaultQuality,
		metadata:    DocumentMetadata{Title: DefaultTitle, Author: DefaultAuthor},
	}
}

// Add validates an upload and appends it to the end of the order.
// A rejected file returns a *ValidationError and leaves the session unchanged.
func (s *Session) Add(filename, contentType string, data []byte) (SourceImage, error) {
	mimeType, err := ValidateUpload(filename, contentType, int64(len(data)), s.maxFileSize)
	if err != nil {
		return SourceImage{}, err
	}
	img := NewSourceImage(filename, mimeType, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append(s.images, img)
	return img, nil
}

// Images returns a copy of the current order.
func (s *Session) Images() []SourceImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SourceImage(nil), s.images...)
}

// Len returns the number of images held.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

// Remove drops the image with the given id.
func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownImage, id)
	}
	s.images = append(s.images[:i:i], s.images[i+1:]...)
	return nil
}

// Move places the image with the given id at position to, clamped to the valid range.
func (s *Session) Move(id string, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.indexOf(id)
	if from < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownImage, id)
	}
	s.moveLocked(from, to)
	return nil
}

// MoveUp swaps the image with its predecessor. It is a no-op for the first image.
func (s *Session) MoveUp(id string) error {
	return s.moveBy(id, -1)
}

// MoveDown swaps the image with its successor. It is a no-op for the last image.
func (s *Session) MoveDown(id string) error {
	return s.moveBy(id, 1)
}

func (s *Session) moveBy(id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.indexOf(id)
	if from < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownImage, id)
	}
	s.moveLocked(from, from+delta)
	return nil
}

// moveLocked requires s.mu to be held.
func (s *Session) moveLocked(from, to int) {
	if to < 0 {
		to = 0
	}
	if to > len(s.images)-1 {
		to = len(s.images) - 1
	}
	if from == to {
		return
	}

	img := s.images[from]
	reordered := make([]SourceImage, 0, len(s.images))
	reordered = append(reordered, s.images[:from]...)
	reordered = append(reordered, s.images[from+1:]...)
	reordered = append(reordered[:to], append([]SourceImage{img}, reordered[to:]...)...)
	s.images = reordered
}

func (s *Session) indexOf(id string) int {
	for i, img := range s.images {
		if img.ID == id {
			return i
		}
	}
	return -1
}

// SetQuality changes the quality used by the next conversion.
func (s *Session) SetQuality(q Quality) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quality = ParseQuality(string(q))
}

// Quality returns the current quality setting.
func (s *Session) Quality() Quality {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quality
}

// SetMetadata replaces the metadata. Only the value present when Convert starts is embedded.
func (s *Session) SetMetadata(meta DocumentMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = meta
}

// Metadata returns the current metadata.
func (s *Session) Metadata() DocumentMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadata
}

// Estimate returns the advisory size estimate for the current images and quality.
func (s *Session) Estimate() SizeEstimate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Estimate(s.images, s.quality)
}

// Convert runs the assembler over a snapshot of the current images, quality and metadata.
// Each call produces a new result; changes made while a run is pending apply to the next one.
func (s *Session) Convert(onProgress ProgressFunc) (*ConversionResult, error) {
	s.mu.Lock()
	if s.converting {
		s.mu.Unlock()
		return nil, ErrConversionInProgress
	}
	if len(s.images) == 0 {
		s.mu.Unlock()
		return nil, &UsageError{Cause: ErrNoImages}
	}
	images := append([]SourceImage(nil), s.images...)
	quality := s.quality
	meta := s.metadata
	s.converting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.converting = false
		s.mu.Unlock()
	}()

	return s.assembler.Assemble(images, quality, meta, onProgress)
}
