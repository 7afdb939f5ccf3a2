package converter

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image_to_pdf/internal/testimage"
)

func filenames(images []SourceImage) []string {
	names := make([]string, len(images))
	for i, img := range images {
		names[i] = img.Filename
	}
	return names
}

func newFilledSession(t *testing.T, names ...string) (*Session, []SourceImage) {
	t.Helper()
	s := NewSession(nil, 0)
	var added []SourceImage
	for _, name := range names {
		img, err := s.Add(name, "image/png", testimage.PNG(10, 10))
		require.NoError(t, err)
		added = append(added, img)
	}
	return s, added
}

func TestSession_AddRejectsPerFile(t *testing.T) {
	s := NewSession(nil, 1024)

	_, err := s.Add("notes.txt", "text/plain", []byte("hello"))
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Invalid file type", vErr.Reason)

	_, err = s.Add("huge.png", "image/png", make([]byte, 2048))
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "huge.png", vErr.Filename)

	img, err := s.Add("ok.png", "image/png", testimage.PNG(4, 4))
	require.NoError(t, err)
	assert.NotEmpty(t, img.ID)
	assert.Equal(t, MIMEPNG, img.MIMEType)
	assert.Equal(t, int64(len(img.Data)), img.Size)

	assert.Equal(t, []string{"ok.png"}, filenames(s.Images()))
}

func TestSession_IdentityIsStable(t *testing.T) {
	s, added := newFilledSession(t, "a.png", "b.png")
	assert.NotEqual(t, added[0].ID, added[1].ID)

	require.NoError(t, s.Move(added[0].ID, 1))
	images := s.Images()
	assert.Equal(t, added[1].ID, images[0].ID)
	assert.Equal(t, added[0].ID, images[1].ID)
}

func TestSession_Reorder(t *testing.T) {
	s, added := newFilledSession(t, "a.png", "b.png", "c.png", "d.png")

	require.NoError(t, s.Move(added[3].ID, 0))
	assert.Equal(t, []string{"d.png", "a.png", "b.png", "c.png"}, filenames(s.Images()))

	require.NoError(t, s.Move(added[3].ID, 99))
	assert.Equal(t, []string{"a.png", "b.png", "c.png", "d.png"}, filenames(s.Images()))

	require.NoError(t, s.MoveUp(added[2].ID))
	assert.Equal(t, []string{"a.png", "c.png", "b.png", "d.png"}, filenames(s.Images()))

	require.NoError(t, s.MoveDown(added[0].ID))
	assert.Equal(t, []string{"c.png", "a.png", "b.png", "d.png"}, filenames(s.Images()))

	require.NoError(t, s.MoveUp(added[2].ID), "moving the first image up is a no-op")
	assert.Equal(t, []string{"c.png", "a.png", "b.png", "d.png"}, filenames(s.Images()))

	require.NoError(t, s.Remove(added[1].ID))
	assert.Equal(t, []string{"c.png", "a.png", "d.png"}, filenames(s.Images()))

	assert.True(t, errors.Is(s.Remove("missing"), ErrUnknownImage))
	assert.True(t, errors.Is(s.Move("missing", 0), ErrUnknownImage))
	assert.True(t, errors.Is(s.MoveDown("missing"), ErrUnknownImage))
}

func TestSession_ImagesIsSnapshot(t *testing.T) {
	s, _ := newFilledSession(t, "a.png", "b.png")
	snapshot := s.Images()
	snapshot[0], snapshot[1] = snapshot[1], snapshot[0]
	assert.Equal(t, []string{"a.png", "b.png"}, filenames(s.Images()))
}

func converting(s *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.converting
}

func TestSession_ConvertEmpty(t *testing.T) {
	s := NewSession(nil, 0)
	result, err := s.Convert(nil)
	assert.Nil(t, result)
	var usageErr *UsageError
	assert.True(t, errors.As(err, &usageErr))
	assert.False(t, converting(s))
}

func TestSession_ConvertUsesCurrentSettings(t *testing.T) {
	s, _ := newFilledSession(t, "a.png", "b.png")
	s.SetMetadata(DocumentMetadata{Title: "First"})

	first, err := s.Convert(nil)
	require.NoError(t, err)
	assert.Equal(t, "First", first.Metadata.Title)
	assert.Equal(t, DefaultQuality, first.Quality)

	s.SetMetadata(DocumentMetadata{Title: "Second"})
	s.SetQuality(QualityLow)
	second, err := s.Convert(nil)
	require.NoError(t, err)
	assert.Equal(t, "Second", second.Metadata.Title)
	assert.Equal(t, "Second", s.Metadata().Title)
	assert.Equal(t, QualityLow, second.Quality)
	assert.NotSame(t, first, second)
	assert.Equal(t, "First", first.Metadata.Title, "an earlier result is not changed by a later run")
}

func TestSession_RejectsOverlappingConversion(t *testing.T) {
	s, _ := newFilledSession(t, "a.png", "b.png")

	var nestedErr error
	var seen []int
	_, err := s.Convert(func(p int) {
		seen = append(seen, p)
		assert.True(t, converting(s))
		if nestedErr == nil {
			_, nestedErr = s.Convert(nil)
		}
	})
	require.NoError(t, err)
	assert.True(t, errors.Is(nestedErr, ErrConversionInProgress))
	assert.Equal(t, []int{50, 100}, seen)
	assert.False(t, converting(s))
}

func TestSession_FailedConversionReleasesSession(t *testing.T) {
	s, _ := newFilledSession(t, "a.png")
	bad, err := s.Add("bad.jpg", "image/jpeg", []byte("definitely not a jpeg"))
	require.NoError(t, err)

	result, err := s.Convert(nil)
	assert.Nil(t, result)
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, bad.ID, decodeErr.ImageID)
	assert.False(t, converting(s))

	require.NoError(t, s.Remove(bad.ID))
	result, err = s.Convert(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.PageCount)
}

func TestSession_RelativeMovesUnderContention(t *testing.T) {
	s, added := newFilledSession(t, "a.png", "b.png", "c.png", "d.png", "e.png")
	target := added[2].ID

	// Relative moves racing with absolute ones must never lose or duplicate an image.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Move(added[0].ID, 4))
			assert.NoError(t, s.Move(added[0].ID, 0))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.MoveUp(target))
			assert.NoError(t, s.MoveDown(target))
		}()
	}
	wg.Wait()

	images := s.Images()
	require.Len(t, images, 5)
	ids := make(map[string]bool)
	for _, img := range images {
		ids[img.ID] = true
	}
	assert.Len(t, ids, 5, "no image is lost or duplicated")
}

func TestSession_Estimate(t *testing.T) {
	s := NewSession(nil, 0)
	_, err := s.Add("a.png", "image/png", make([]byte, 1000))
	require.NoError(t, err)
	s.SetQuality(QualityHigh)

	est := s.Estimate()
	assert.Equal(t, int64(1000), est.OriginalBytes)
	assert.Equal(t, int64(900), est.EstimatedBytes)
	assert.Equal(t, QualityHigh, s.Quality())
}
