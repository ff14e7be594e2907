package render

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/taigrr/raysphere/pkg/scene"
	"github.com/taigrr/raysphere/pkg/trace"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidSize is returned for non-positive image dimensions.
var ErrInvalidSize = errors.New("invalid image size")

// Render traces every pixel of a width x height image of sc on the calling
// goroutine. It is deterministic: identical inputs give identical pixels.
// Non-positive dimensions give an empty framebuffer.
func Render(sc scene.Scene, width, height int) *Framebuffer {
	fb := NewFramebuffer(width, height)
	if fb.Width == 0 {
		return fb
	}
	view := NewView(sc.Camera, width, height)
	for j := 0; j < height; j++ {
		renderRow(&sc, view, fb.Row(j), j)
	}
	return fb
}

// RenderDefault renders the reference scene.
func RenderDefault(width, height int) *Framebuffer {
	return Render(scene.Default(), width, height)
}

func renderRow(sc *scene.Scene, view View, row []Color, j int) {
	for i := range row {
		row[i] = ToColor(trace.Trace(sc, view.Ray(i, j)))
	}
}

// Renderer spreads rows across goroutines. Its output is byte-identical to
// Render.
type Renderer struct {
	// Workers bounds the number of rows traced at once; <= 0 means runtime.NumCPU().
	Workers int
}

// NewRenderer creates a renderer with the given worker limit.
func NewRenderer(workers int) *Renderer {
	return &Renderer{Workers: workers}
}

// Render traces a frame in parallel. Cancellation is per frame: once ctx is
// done the remaining rows are skipped and ctx.Err() is returned instead of a
// partial image.
func (r *Renderer) Render(ctx context.Context, sc scene.Scene, width, height int) (*Framebuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	fb := NewFramebuffer(width, height)
	view := NewView(sc.Camera, width, height)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for j := 0; j < height; j++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			renderRow(&sc, view, fb.Row(j), j)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fb, nil
}
