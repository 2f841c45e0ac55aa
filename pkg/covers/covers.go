// Package covers persists extracted cover images on disk, keyed by book ID.
// Oversized images are downscaled before they are written so the covers
// directory stays bounded by the library size, not the source image sizes.
package covers

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// maxWidth is the widest stored cover; anything wider is downscaled
// preserving aspect ratio.
const maxWidth = 400

var ErrUnsupportedImage = errors.New("unsupported cover image format")

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WithStack(err)
	}
	return &Store{dir: dir}, nil
}

// Filepath returns where the cover for a book is stored, given the mime type
// recorded on the book row.
func (s *Store) Filepath(bookID int, mime string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d%s", bookID, extension(mime)))
}

// Save writes a cover image for a book and reports the mime type actually
// stored. Images wider than maxWidth are downscaled.
func (s *Store) Save(bookID int, data []byte, mime string) (string, error) {
	ext := extension(mime)
	if ext == "" {
		return "", ErrUnsupportedImage
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Some files carry covers with broken encodings; store the bytes
		// verbatim rather than dropping the cover.
		if werr := os.WriteFile(s.Filepath(bookID, mime), data, 0o644); werr != nil {
			return "", errors.WithStack(werr)
		}
		return mime, nil
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxWidth {
		height := bounds.Dy() * maxWidth / bounds.Dx()
		scaled := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
	}

	buf := &bytes.Buffer{}
	switch format {
	case "png":
		err = png.Encode(buf, img)
		mime = "image/png"
	default:
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: 85})
		mime = "image/jpeg"
	}
	if err != nil {
		return "", errors.WithStack(err)
	}

	if err := os.WriteFile(s.Filepath(bookID, mime), buf.Bytes(), 0o644); err != nil {
		return "", errors.WithStack(err)
	}
	return mime, nil
}

// Delete removes any stored cover for a book. Missing files are not errors.
func (s *Store) Delete(bookID int) error {
	for _, mime := range []string{"image/jpeg", "image/png"} {
		err := os.Remove(s.Filepath(bookID, mime))
		if err != nil && !os.IsNotExist(err) {
			return errors.WithStack(err)
		}
	}
	return nil
}

func extension(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	return ""
}
