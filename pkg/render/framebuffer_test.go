package render

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/raysphere/pkg/math3d"
)

func TestFramebufferSavePNG(t *testing.T) {
	// Create a small framebuffer with a gradient
	fb := NewFramebuffer(100, 100)
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			fb.Set(x, y, RGB(uint8(x*2), uint8(y*2), 128))
		}
	}

	// Save to temp file
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test.png")

	err := fb.SavePNG(path)
	if err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	// Verify file exists and decodes to the same size
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("File not created: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Errorf("Decoded size %v, want 100x100", img.Bounds())
	}
	r, g, b, _ := img.At(10, 20).RGBA()
	if r>>8 != 20 || g>>8 != 40 || b>>8 != 128 {
		t.Errorf("Decoded pixel (10,20) = %d,%d,%d, want 20,40,128", r>>8, g>>8, b>>8)
	}
}

func TestFramebufferToImage(t *testing.T) {
	fb := NewFramebuffer(50, 50)
	fb.Set(10, 20, RGB(255, 0, 0))
	fb.Set(30, 40, RGB(0, 255, 0))

	img := fb.ToImage()

	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 50 {
		t.Errorf("Image dimensions wrong: got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}

	// Check specific pixels
	r, g, b, a := img.At(10, 20).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 || a>>8 != 255 {
		t.Errorf("Red pixel wrong: got %d,%d,%d,%d", r>>8, g>>8, b>>8, a>>8)
	}

	r, g, b, a = img.At(30, 40).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 || a>>8 != 255 {
		t.Errorf("Green pixel wrong: got %d,%d,%d,%d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestFramebufferBounds(t *testing.T) {
	fb := NewFramebuffer(4, 3)
	fb.Set(-1, 0, RGB(255, 255, 255))
	fb.Set(4, 0, RGB(255, 255, 255))
	fb.Set(0, 3, RGB(255, 255, 255))
	for i, c := range fb.Pixels {
		if c != RGB(0, 0, 0) {
			t.Fatalf("out-of-range Set wrote pixel %d", i)
		}
	}
	if got := fb.At(10, 10); got != RGB(0, 0, 0) {
		t.Errorf("At out of range = %v, want black", got)
	}

	empty := NewFramebuffer(0, 10)
	if empty.Width != 0 || empty.Height != 0 || len(empty.Pixels) != 0 {
		t.Errorf("NewFramebuffer(0, 10) = %dx%d, want empty", empty.Width, empty.Height)
	}
}

func TestFramebufferRowsRowMajor(t *testing.T) {
	fb := NewFramebuffer(3, 2)
	fb.Set(2, 0, RGB(0, 0, 255))
	fb.Set(0, 1, RGB(255, 0, 0))

	rows := fb.Rows()
	if len(rows) != 2 || len(rows[0]) != 3 {
		t.Fatalf("Rows() shape = %dx%d, want 2x3", len(rows), len(rows[0]))
	}
	if rows[0][2] != RGB(0, 0, 255) || rows[1][0] != RGB(255, 0, 0) {
		t.Errorf("Rows() = %v", rows)
	}
	// Rows is a copy.
	rows[0][0] = RGB(255, 255, 255)
	if fb.At(0, 0) != RGB(0, 0, 0) {
		t.Error("Rows() aliases framebuffer storage")
	}
}

func TestFramebufferWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFramebuffer(2, 2).WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("missing PNG signature")
	}
}

func TestToColor(t *testing.T) {
	tests := []struct {
		in   math3d.Vec3
		want Color
	}{
		{math3d.V3(0, 0, 0), RGB(0, 0, 0)},
		{math3d.V3(1, 1, 1), RGB(255, 255, 255)},
		{math3d.V3(0.25, 0.25, 0.25), RGB(63, 63, 63)}, // truncated, not rounded
		{math3d.V3(-3, 2, 0.5), RGB(0, 255, 127)},
	}
	for _, tt := range tests {
		if got := ToColor(tt.in); got != tt.want {
			t.Errorf("ToColor(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
