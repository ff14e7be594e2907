package render

import (
	"context"
	"errors"
	"testing"

	"github.com/taigrr/raysphere/pkg/math3d"
	"github.com/taigrr/raysphere/pkg/scene"
)

var background = RGB(63, 63, 63)

func TestRenderDefault(t *testing.T) {
	fb := RenderDefault(320, 240)
	if fb.Width != 320 || fb.Height != 240 || len(fb.Pixels) != 320*240 {
		t.Fatalf("framebuffer %dx%d with %d pixels", fb.Width, fb.Height, len(fb.Pixels))
	}
	for _, corner := range [][2]int{{0, 0}, {319, 0}, {0, 239}, {319, 239}} {
		if got := fb.At(corner[0], corner[1]); got != background {
			t.Errorf("corner %v = %v, want background %v", corner, got, background)
		}
	}
	centre := fb.At(160, 120)
	if centre == background {
		t.Fatal("centre pixel shows background, sphere missing")
	}
	if centre.R <= centre.G || centre.G != centre.B {
		t.Errorf("centre pixel %v is not a lit red surface", centre)
	}
	// The key light sits above the sphere, so with row 0 at the top the upper
	// half must be brighter than the lower half.
	if top, bottom := fb.At(160, 80), fb.At(160, 160); top.R <= bottom.R {
		t.Errorf("top %v not brighter than bottom %v; image flipped?", top, bottom)
	}
}

func TestRenderDeterministic(t *testing.T) {
	a := RenderDefault(64, 48)
	b := RenderDefault(64, 48)
	if !a.Equal(b) {
		t.Error("two renders of the same scene differ")
	}
}

func TestRenderInvalidSize(t *testing.T) {
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, -1}} {
		fb := Render(scene.Default(), size[0], size[1])
		if fb.Width != 0 || len(fb.Pixels) != 0 {
			t.Errorf("Render(%v) = %dx%d, want empty", size, fb.Width, fb.Height)
		}
		_, err := NewRenderer(2).Render(context.Background(), scene.Default(), size[0], size[1])
		if !errors.Is(err, ErrInvalidSize) {
			t.Errorf("Renderer.Render(%v) error = %v, want ErrInvalidSize", size, err)
		}
	}
}

func TestRendererMatchesSequential(t *testing.T) {
	sc := scene.Default().WithSpheres([]scene.Sphere{
		scene.UnitSphere(),
		{Kind: scene.KindSphere, Center: math3d.V3(1.5, 0.5, 1), Radius: 0.5, Material: scene.DefaultMaterial()},
	})
	want := Render(sc, 97, 31)
	for _, workers := range []int{0, 1, 3, 16} {
		got, err := NewRenderer(workers).Render(context.Background(), sc, 97, 31)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		if !got.Equal(want) {
			t.Errorf("workers=%d: parallel render differs from sequential", workers)
		}
	}
}

func TestRendererCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fb, err := NewRenderer(4).Render(ctx, scene.Default(), 64, 48)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if fb != nil {
		t.Error("cancelled render returned a partial frame")
	}
}

func TestRenderEmptyScene(t *testing.T) {
	sc := scene.Default().WithSpheres(nil).WithBackground(math3d.V3(0, 0, 1))
	fb := Render(sc, 8, 8)
	for i, c := range fb.Pixels {
		if c != RGB(0, 0, 255) {
			t.Fatalf("pixel %d = %v, want blue background", i, c)
		}
	}
}

func BenchmarkRender(b *testing.B) {
	sc := scene.Default()
	for i := 0; i < b.N; i++ {
		_ = Render(sc, 320, 240)
	}
}

func BenchmarkRendererParallel(b *testing.B) {
	sc := scene.Default()
	r := NewRenderer(0)
	ctx := context.Background()
	for i := 0; i < b.N; i++ {
		if _, err := r.Render(ctx, sc, 320, 240); err != nil {
			b.Fatal(err)
		}
	}
}
