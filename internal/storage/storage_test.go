package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ekharid/internal/model"
)

// pngBytes is a PNG signature followed by an IHDR chunk header, enough for
// content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"), make([]byte, 64)...)

func TestLocalUploaderSaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	up, err := NewLocalUploader(dir, "http://localhost:8000/")
	require.NoError(t, err)

	url, err := up.Save(context.Background(), Upload{Filename: "lamp.png", Body: bytes.NewReader(pngBytes)})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8000/uploads/"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	stored := filepath.Join(dir, filepath.Base(url))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	require.NoError(t, up.Remove(context.Background(), url))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, up.Remove(context.Background(), url), "removing twice is fine")
}

func TestLocalUploaderRejectsNonImages(t *testing.T) {
	dir := t.TempDir()
	up, err := NewLocalUploader(dir, "")
	require.NoError(t, err)

	_, err = up.Save(context.Background(), Upload{Filename: "notes.png", Body: strings.NewReader("just some text")})
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	assert.ErrorIs(t, err, model.ErrValidation)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalUploaderRelativeURL(t *testing.T) {
	up, err := NewLocalUploader(t.TempDir(), "")
	require.NoError(t, err)
	url, err := up.Save(context.Background(), Upload{Filename: "a.jpg", Body: bytes.NewReader([]byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00"))})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/"), url)
	assert.True(t, strings.HasSuffix(url, ".jpg"), url)
}
