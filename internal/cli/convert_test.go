package cli

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image_to_pdf/internal/converter"
	"image_to_pdf/internal/testimage"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestCollectImagePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page10.png"), testimage.PNG(4, 4))
	writeFile(t, filepath.Join(dir, "page02.jpg"), testimage.JPEG(4, 4))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("skip me"))
	writeFile(t, filepath.Join(dir, "cover.webp"), testimage.WebP)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	single := filepath.Join(t.TempDir(), "back.gif")
	writeFile(t, single, testimage.GIF(4, 4))

	got, err := collectImagePaths([]string{single, dir})
	require.NoError(t, err)

	want := []string{
		single,
		filepath.Join(dir, "cover.webp"),
		filepath.Join(dir, "page02.jpg"),
		filepath.Join(dir, "page10.png"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("collectImagePaths() mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectImagePaths_Errors(t *testing.T) {
	_, err := collectImagePaths([]string{filepath.Join(t.TempDir(), "missing.png")})
	assert.Error(t, err)

	_, err = collectImagePaths([]string{t.TempDir()})
	assert.True(t, errors.Is(err, converter.ErrNoImages))
}

func TestAddFiles(t *testing.T) {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	dir := t.TempDir()
	good := filepath.Join(dir, "good.png")
	writeFile(t, good, testimage.PNG(4, 4))
	text := filepath.Join(dir, "readme.txt")
	writeFile(t, text, []byte("hello"))
	empty := filepath.Join(dir, "empty.jpg")
	writeFile(t, empty, nil)

	session := converter.NewSession(nil, 0)
	rejected := addFiles(session, []string{good, text, empty, filepath.Join(dir, "gone.png")})

	assert.Equal(t, 3, rejected)
	images := session.Images()
	require.Len(t, images, 1)
	assert.Equal(t, "good.png", images[0].Filename)
	assert.Equal(t, converter.MIMEPNG, images[0].MIMEType)
}

func editedSession(t *testing.T, names ...string) *converter.Session {
	t.Helper()
	session := converter.NewSession(nil, 0)
	for _, name := range names {
		_, err := session.Add(name, "image/png", testimage.PNG(4, 4))
		require.NoError(t, err)
	}
	return session
}

func sessionOrder(session *converter.Session) []string {
	var names []string
	for _, img := range session.Images() {
		names = append(names, img.Filename)
	}
	return names
}

func TestApplyEdits(t *testing.T) {
	session := editedSession(t, "a.png", "b.png", "c.png", "d.png", "e.png")

	err := applyEdits(session, pageEdits{
		drop: []string{"b.png"},
		move: []string{"e.png:1", "a.png:99"},
		up:   []string{"d.png"},
		down: []string{"e.png"},
	})
	require.NoError(t, err)

	// drop b: a c d e; move e to 1: e a c d; move a to last: e c d a;
	// d up: e d c a; e down: d e c a.
	want := []string{"d.png", "e.png", "c.png", "a.png"}
	if diff := cmp.Diff(want, sessionOrder(session)); diff != "" {
		t.Errorf("page order mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEdits_Errors(t *testing.T) {
	tests := []struct {
		name  string
		edits pageEdits
	}{
		{"unknown drop", pageEdits{drop: []string{"zzz.png"}}},
		{"unknown up", pageEdits{up: []string{"zzz.png"}}},
		{"move without page", pageEdits{move: []string{"a.png"}}},
		{"move page zero", pageEdits{move: []string{"a.png:0"}}},
		{"move bad page", pageEdits{move: []string{"a.png:two"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := editedSession(t, "a.png", "b.png")
			assert.Error(t, applyEdits(session, tt.edits))
		})
	}

	err := applyEdits(editedSession(t, "a.png"), pageEdits{down: []string{"missing.png"}})
	assert.True(t, errors.Is(err, converter.ErrUnknownImage))
}
