// Package render turns a scene into pixels: camera ray generation, the
// frame loop (sequential or spread across goroutines), picking, and the
// framebuffer with its image/PNG conversions.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"github.com/taigrr/raysphere/pkg/math3d"
)

// Color is an 8-bit RGB pixel.
type Color struct {
	R, G, B uint8
}

// RGB creates a Color.
func RGB(r, g, b uint8) Color {
	return Color{r, g, b}
}

// ToColor clamps c to [0, 1] and scales it to bytes, truncating toward zero.
func ToColor(c math3d.Vec3) Color {
	c = c.Clamp01()
	return Color{uint8(c.X * 255), uint8(c.Y * 255), uint8(c.Z * 255)}
}

// Framebuffer is a row-major grid of pixels; row 0 is the top of the image.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []Color
}

// NewFramebuffer allocates a width x height framebuffer. Non-positive
// dimensions give an empty framebuffer.
func NewFramebuffer(width, height int) *Framebuffer {
	if width <= 0 || height <= 0 {
		return &Framebuffer{}
	}
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// Set writes the pixel at column x, row y. Out-of-range writes are ignored.
func (fb *Framebuffer) Set(x, y int, c Color) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// At returns the pixel at column x, row y, or black when out of range.
func (fb *Framebuffer) At(x, y int) Color {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return Color{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// Row returns row y as a slice sharing the framebuffer's storage.
func (fb *Framebuffer) Row(y int) []Color {
	return fb.Pixels[y*fb.Width : (y+1)*fb.Width]
}

// Rows returns a copy of the pixels as [row][column].
func (fb *Framebuffer) Rows() [][]Color {
	rows := make([][]Color, fb.Height)
	for y := range rows {
		rows[y] = append([]Color(nil), fb.Row(y)...)
	}
	return rows
}

// Equal reports whether both framebuffers have the same size and pixels.
func (fb *Framebuffer) Equal(other *Framebuffer) bool {
	if fb.Width != other.Width || fb.Height != other.Height {
		return false
	}
	for i := range fb.Pixels {
		if fb.Pixels[i] != other.Pixels[i] {
			return false
		}
	}
	return true
}

// ToImage converts the framebuffer to an opaque RGBA image.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			c := fb.Pixels[y*fb.Width+x]
			img.SetRGBA(x, y, color.RGBA{c.R, c.G, c.B, 255})
		}
	}
	return img
}

// WritePNG encodes the framebuffer as PNG.
func (fb *Framebuffer) WritePNG(w io.Writer) error {
	if err := png.Encode(w, fb.ToImage()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SavePNG writes the framebuffer to a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := fb.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
