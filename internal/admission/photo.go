package admission

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"ms-backoffice/internal/apperr"

	"github.com/disintegration/imaging"
)

// PhotoStore keeps one resized JPEG per admission under Dir/photos.
type PhotoStore struct {
	Dir       string
	MaxBytes  int64
	MaxWidth  int
	MaxHeight int
}

func NewPhotoStore(dir string, maxBytes int64, maxWidth, maxHeight int) *PhotoStore {
	return &PhotoStore{Dir: dir, MaxBytes: maxBytes, MaxWidth: maxWidth, MaxHeight: maxHeight}
}

// Save validates and resizes the upload, then writes it as photos/<formNo>.jpg. It returns the
// path relative to Dir.
func (p *PhotoStore) Save(formNo string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, p.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) > p.MaxBytes {
		return "", apperr.Invalid("photo", fmt.Sprintf("photo must not exceed %d MB", p.MaxBytes>>20))
	}
	switch http.DetectContentType(data) {
	case "image/jpeg", "image/png":
	default:
		return "", apperr.Invalid("photo", "photo must be a JPEG or PNG image")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", apperr.Invalid("photo", "photo could not be decoded")
	}
	b := img.Bounds()
	if b.Dx() > p.MaxWidth || b.Dy() > p.MaxHeight {
		img = imaging.Fit(img, p.MaxWidth, p.MaxHeight, imaging.Lanczos)
	}

	rel := filepath.Join("photos", formNo+".jpg")
	dst := filepath.Join(p.Dir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create photo dir: %w", err)
	}
	if err := imaging.Save(img, dst, imaging.JPEGQuality(90)); err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// Remove deletes a stored photo. A missing file is not an error.
func (p *PhotoStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	err := os.Remove(filepath.Join(p.Dir, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
