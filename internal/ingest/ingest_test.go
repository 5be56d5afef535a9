package ingest

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("Failed to encode test PNG: %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	data := encodePNG(t, 3, 2)
	decoded, err := Decode(File{Name: "pic.png", Size: int64(len(data)), Data: data})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if decoded.Width != 3 || decoded.Height != 2 {
		t.Errorf("Expected 3x2, got %dx%d", decoded.Width, decoded.Height)
	}
	if decoded.MIMEType != "image/png" {
		t.Errorf("Expected image/png, got %s", decoded.MIMEType)
	}
	if decoded.Bitmap == nil {
		t.Fatal("Expected an owned bitmap")
	}

	// Raw must be an owned copy, not an alias of the upload buffer.
	data[0] = 0x00
	if decoded.Raw[0] == 0x00 {
		t.Error("Decoded.Raw aliases the request buffer")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode(File{Name: "bad.png", Data: []byte("not an image")}); err == nil {
		t.Error("Expected error for undecodable data")
	}
}

func TestDisambiguateNames(t *testing.T) {
	tests := []struct {
		name     string
		in       []string
		expected []string
	}{
		{
			name:     "unique names untouched",
			in:       []string{"a.png", "b.png"},
			expected: []string{"a.png", "b.png"},
		},
		{
			name:     "duplicates get numbered suffixes",
			in:       []string{"cat.png", "cat.png", "cat.png"},
			expected: []string{"cat.png", "cat (2).png", "cat (3).png"},
		},
		{
			name:     "case-insensitive collision",
			in:       []string{"Cat.PNG", "cat.png"},
			expected: []string{"Cat.PNG", "cat (2).png"},
		},
		{
			name:     "no extension",
			in:       []string{"cat", "cat"},
			expected: []string{"cat", "cat (2)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := make([]File, len(tt.in))
			for i, n := range tt.in {
				files[i] = File{Name: n}
			}
			out := DisambiguateNames(files)
			for i, want := range tt.expected {
				if out[i].Name != want {
					t.Errorf("File %d: expected %q, got %q", i, want, out[i].Name)
				}
			}
		})
	}
}

func TestSaveUpload(t *testing.T) {
	dir := t.TempDir()
	data := encodePNG(t, 1, 1)

	name, err := SaveUpload(dir, File{Name: "pic.png", Data: data})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Identical bytes land on the same file.
	name2, err := SaveUpload(dir, File{Name: "other.png", Data: data})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if name != name2 {
		t.Errorf("Identical data should share a stored name: %s vs %s", name, name2)
	}
}

func TestSaveTempAndRemove(t *testing.T) {
	path, err := SaveTemp([]byte("payload"), ".png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	defer RemoveTemp(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Temp file unreadable: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Unexpected temp contents: %q", data)
	}

	RemoveTemp(path)
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Temp file should be gone after RemoveTemp")
	}

	// Removing again (or removing nothing) is harmless.
	RemoveTemp(path)
	RemoveTemp("")
}
