// Package ingest normalizes uploaded image files before they enter a
// caption session.
package ingest

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/captionlab/captioner/internal/utils"
)

// File is one uploaded image as it arrives at the upload boundary.
type File struct {
	Name string
	Size int64
	Data []byte
}

// Decoded is a normalized in-memory image: an owned RGBA copy of the upload
// plus its identity and dimensions.
type Decoded struct {
	Name     string
	Size     int64
	Width    int
	Height   int
	MIMEType string
	Bitmap   *image.RGBA
	Raw      []byte
}

// Decode decodes the upload and re-renders it into an owned RGBA bitmap so
// the stored image never aliases the request buffer.
func Decode(f File) (*Decoded, error) {
	img, format, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", f.Name, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	raw := make([]byte, len(f.Data))
	copy(raw, f.Data)

	return &Decoded{
		Name:     f.Name,
		Size:     f.Size,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MIMEType: "image/" + format,
		Bitmap:   rgba,
		Raw:      raw,
	}, nil
}

// DisambiguateNames gives duplicate file names within one batch unique
// " (2)", " (3)"… suffixes before the extension, so later records never
// silently overwrite earlier ones.
func DisambiguateNames(files []File) []File {
	seen := make(map[string]int, len(files))
	out := make([]File, len(files))
	for i, f := range files {
		key := strings.ToLower(f.Name)
		seen[key]++
		out[i] = f
		if n := seen[key]; n > 1 {
			ext := filepath.Ext(f.Name)
			base := strings.TrimSuffix(f.Name, ext)
			out[i].Name = fmt.Sprintf("%s (%d)%s", base, n, ext)
		}
	}
	return out
}

// SaveUpload persists the raw upload under dir, named by content MD5 so
// identical bytes land on the same file. Returns the stored filename.
func SaveUpload(dir string, f File) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	name := utils.CalculateDataMD5(f.Data) + filepath.Ext(f.Name)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, f.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return name, nil
}

// SaveTemp writes data to a scoped temp file. Callers remove it with
// RemoveTemp in a deferred step so the file never outlives the call.
func SaveTemp(data []byte, ext string) (string, error) {
	tmp, err := os.CreateTemp("", "captioner-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return tmp.Name(), nil
}

// RemoveTemp deletes a temp file created by SaveTemp. Missing files are
// ignored.
func RemoveTemp(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
