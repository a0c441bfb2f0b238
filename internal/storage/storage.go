// Package storage persists uploaded product images and hands back the
// stable URLs that products store instead of raw files.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/iliyamo/ekharid/internal/model"
)

// PublicPrefix is the URL path under which stored files are served.
const PublicPrefix = "/uploads"

// sniffLen is how many leading bytes are inspected to detect the type.
const sniffLen = 3072

// ErrUnsupportedImage is returned for files that are not a known image
// type.  It matches model.ErrValidation.
var ErrUnsupportedImage = fmt.Errorf("%w: unsupported image type", model.ErrValidation)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Upload is one incoming file.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Uploader stores files and returns their public URL.
type Uploader interface {
	Save(ctx context.Context, u Upload) (string, error)
	Remove(ctx context.Context, url string) error
}

// LocalUploader writes files into Dir and serves them under
// BaseURL + PublicPrefix.
type LocalUploader struct {
	Dir     string
	BaseURL string
}

// NewLocalUploader creates dir if needed.
func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalUploader{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save sniffs the content type, rejects non-images and writes the file
// under a random name keeping the detected extension.
func (l *LocalUploader) Save(ctx context.Context, u Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(u.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", u.Filename, err)
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	if !allowedTypes[mt.String()] {
		return "", fmt.Errorf("%w: %s is %s", ErrUnsupportedImage, u.Filename, mt.String())
	}

	name := uuid.NewString() + mt.Extension()
	dst := filepath.Join(l.Dir, name)
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), u.Body)); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return l.BaseURL + path.Join(PublicPrefix, name), nil
}

// Remove deletes the file behind url.  Missing files are not an error.
func (l *LocalUploader) Remove(_ context.Context, url string) error {
	name := path.Base(url)
	if name == "." || name == "/" || name == "" {
		return nil
	}
	if err := os.Remove(filepath.Join(l.Dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
