// raysphere - Terminal sphere ray tracer
// Orbit a ray traced sphere scene in your terminal.
//
// Controls:
//
//	Mouse drag  - Orbit camera (yaw/pitch)
//	Scroll      - Zoom in/out
//	W/S         - Orbit up/down
//	A/D         - Orbit left/right
//	Space       - Toggle auto-spin
//	R           - Reset camera
//	P / click   - Pick the sphere under the cursor
//	?           - Toggle HUD overlay (FPS, scene, sphere count, pick)
//	+/-         - Adjust zoom
//	Esc         - Quit
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"fortio.org/cli"
	"fortio.org/log"
	"fortio.org/terminal/ansipixels"
	"fortio.org/terminal/ansipixels/tcolor"
	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/raysphere/pkg/math3d"
	"github.com/taigrr/raysphere/pkg/render"
	"github.com/taigrr/raysphere/pkg/scene"
)

var (
	targetFPS float64
	bgFlag    string
	termBG    bool
	workers   int
)

const (
	maxPitch = 1.4
	minZoom  = 0.3
	maxZoom  = 4.0
)

func main() {
	flag.Float64Var(&targetFPS, "fps", 30, "Target FPS")
	flag.StringVar(&bgFlag, "bg", "", "Background color override (#rrggbb)")
	flag.BoolVar(&termBG, "termbg", false, "Use the terminal background color as scene background")
	flag.IntVar(&workers, "workers", 0, "Rows rendered in parallel (0 = number of CPUs)")
	cli.ArgsHelp = "<scene.json|scene.yaml|model.glb> (default: reference scene)"
	cli.MinArgs = 0
	cli.MaxArgs = 1
	cli.Main()

	sc := scene.Default()
	name := "reference scene"
	if flag.NArg() > 0 {
		var err error
		if sc, err = scene.Open(flag.Arg(0)); err != nil {
			os.Exit(log.FErrf("load scene: %v", err))
		}
		name = filepath.Base(flag.Arg(0))
	}
	if bgFlag != "" {
		bg, err := scene.ParseColor(bgFlag)
		if err != nil {
			os.Exit(log.FErrf("invalid -bg: %v", err))
		}
		sc = sc.WithBackground(bg)
	}
	os.Exit(run(sc, name))
}

// RotationAxis tracks position and velocity for one rotation axis with spring decay.
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewRotationAxis creates an axis with harmonica spring for smooth velocity decay.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0 using spring.
func (a *RotationAxis) Update(damping bool) {
	a.Position += a.Velocity
	if damping {
		a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
	}
}

// Orbit holds the camera orbit around the scene's look-at point: yaw and
// pitch decay with spring physics, zoom eases toward its target.
type Orbit struct {
	Pitch, Yaw RotationAxis
	Zoom       float64
	ZoomTarget float64
	zoomVel    float64
	zoomSpring harmonica.Spring
	fps        int
}

func NewOrbit(fps int) *Orbit {
	o := &Orbit{fps: fps}
	o.Reset()
	return o
}

func (o *Orbit) Reset() {
	o.Pitch = NewRotationAxis(o.fps)
	o.Yaw = NewRotationAxis(o.fps)
	o.Zoom, o.ZoomTarget, o.zoomVel = 1, 1, 0
	o.zoomSpring = harmonica.NewSpring(harmonica.FPS(o.fps), 6.0, 1.0)
}

func (o *Orbit) ApplyImpulse(pitch, yaw float64) {
	o.Pitch.Velocity += pitch
	o.Yaw.Velocity += yaw
}

func (o *Orbit) ZoomBy(delta float64) {
	o.ZoomTarget = min(maxZoom, max(minZoom, o.ZoomTarget+delta))
}

func (o *Orbit) Update(damping bool) {
	o.Pitch.Update(damping)
	o.Yaw.Update(damping)
	if o.Pitch.Position > maxPitch || o.Pitch.Position < -maxPitch {
		o.Pitch.Position = math.Copysign(maxPitch, o.Pitch.Position)
		o.Pitch.Velocity = 0
	}
	o.Zoom, o.zoomVel = o.zoomSpring.Update(o.Zoom, o.zoomVel, o.ZoomTarget)
}

// Camera orbits base around its look-at point.
func (o *Orbit) Camera(base scene.Camera) scene.Camera {
	offset := base.Eye.Sub(base.LookAt)
	rot := math3d.RotateY(o.Yaw.Position).Mul(math3d.RotateX(o.Pitch.Position))
	cam := base
	cam.Eye = base.LookAt.Add(rot.MulVec3Dir(offset).Scale(o.Zoom))
	cam.Up = rot.MulVec3Dir(base.Up)
	return cam
}

// HUD renders an overlay with scene info and the last pick.
type HUD struct {
	name      string
	spheres   int
	fps       float64
	fpsFrames int
	fpsTime   time.Time
	show      bool
	pick      string
}

func NewHUD(name string, spheres int) *HUD {
	return &HUD{name: name, spheres: spheres, fpsTime: time.Now(), show: true}
}

// UpdateFPS updates the FPS counter (call once per frame).
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// SetPick records the result of a pick for display.
func (h *HUD) SetPick(sc scene.Scene, idx int, t float64, ok bool) {
	if !ok {
		h.pick = "background"
		return
	}
	sp := sc.Spheres[idx]
	h.pick = fmt.Sprintf("sphere %d  t=%.3f  r=%.2f  %s", idx, t, sp.Radius, scene.Hex(sp.Material.BaseColor))
}

// Draw renders the HUD overlay to the terminal using ansipixels.
func (h *HUD) Draw(ap *ansipixels.AnsiPixels) {
	if !h.show {
		return
	}
	ap.WriteAt(0, 0, tcolor.Green.Foreground()+"%.0f FPS "+tcolor.Reset, h.fps)
	ap.WriteCentered(0, "%s", h.name)
	ap.WriteRight(0, tcolor.Cyan.Foreground()+"%d spheres"+tcolor.Reset, h.spheres)
	if h.pick != "" {
		ap.WriteAt(0, ap.H-1, "%sPick:%s %s", tcolor.Yellow.Foreground(), tcolor.Reset, h.pick)
	}
	ap.WriteRight(ap.H-1, "%sP/click: pick%s", tcolor.Yellow.Foreground(), tcolor.Reset)
}

// cellToPixel maps a 1-based terminal mouse cell to the framebuffer pixel
// under it. Each cell covers two pixel rows; the upper one is returned.
func cellToPixel(mx, my int) (x, y int) {
	return mx - 1, (my - 1) * 2
}

//nolint:gocognit,gocyclo,funlen // main loop and key handling.
func run(sc scene.Scene, name string) int {
	ap := ansipixels.NewAnsiPixels(targetFPS)
	if err := ap.Open(); err != nil {
		return log.FErrf("open ansipixels: %v", err)
	}
	defer func() {
		ap.ShowCursor()
		ap.MouseTrackingOff()
		ap.Out.Flush()
		ap.Restore()
	}()
	ap.SyncBackgroundColor()
	ap.MouseTrackingOn()
	ap.HideCursor()
	if termBG {
		sc = sc.WithBackground(math3d.V3(
			float64(ap.Background.R)/255, float64(ap.Background.G)/255, float64(ap.Background.B)/255))
	}

	renderer := render.NewRenderer(workers)
	orbit := NewOrbit(int(math.Round(targetFPS)))
	hud := NewHUD(name, len(sc.Spheres))
	base := sc.Camera
	ctx := context.Background()

	// Using 2x height for half-block characters.
	width, height := ap.W, ap.H*2
	ap.OnResize = func() error {
		width, height = ap.W, ap.H*2
		return nil
	}

	view := sc
	pick := func(x, y int) {
		idx, t, ok := render.Pick(view, width, height, x, y)
		hud.SetPick(view, idx, t, ok)
		log.LogVf("pick (%d,%d): %s", x, y, hud.pick)
	}

	spin := false
	inputTorque := struct{ pitch, yaw float64 }{}
	const torqueStrength = 3.0
	lastMouseX, lastMouseY := 0, 0
	ap.OnMouse = func() {
		switch {
		case ap.MouseWheelUp():
			orbit.ZoomBy(-0.1)
		case ap.MouseWheelDown():
			orbit.ZoomBy(0.1)
		case ap.LeftClick():
			pick(cellToPixel(ap.Mx, ap.My))
		case ap.LeftDrag():
			dx := ap.Mx - lastMouseX
			dy := ap.My - lastMouseY
			orbit.ApplyImpulse(float64(dy)*0.03, float64(dx)*0.03)
		}
		lastMouseX, lastMouseY = ap.Mx, ap.My
	}

	lastFrame := time.Now()
	err := ap.FPSTicks(func() bool {
		now := time.Now()
		dt := min(now.Sub(lastFrame).Seconds(), 0.1)
		lastFrame = now
		for _, b := range ap.Data {
			switch b {
			case 'w', 'W':
				inputTorque.pitch = torqueStrength
			case 's', 'S':
				inputTorque.pitch = -torqueStrength
			case 'a', 'A':
				inputTorque.yaw = -torqueStrength
			case 'd', 'D':
				inputTorque.yaw = torqueStrength
			case 'r', 'R':
				orbit.Reset()
				spin = false
			case 'p', 'P':
				pick(cellToPixel(lastMouseX, lastMouseY))
			case '?':
				hud.show = !hud.show
			case '+', '=':
				orbit.ZoomBy(-0.1)
			case '-', '_':
				orbit.ZoomBy(0.1)
			case ' ':
				spin = !spin
				if spin {
					orbit.Yaw.Velocity = 0.02
				}
			case 27, 3, 4: // Escape, Ctrl-C, Ctrl-D
				return false
			}
		}

		orbit.ApplyImpulse(inputTorque.pitch*dt, inputTorque.yaw*dt)
		inputTorque.pitch *= 0.9
		inputTorque.yaw *= 0.9
		orbit.Update(!spin)

		view = sc.WithCamera(orbit.Camera(base))
		fb, err := renderer.Render(ctx, view, width, height)
		if err != nil {
			log.Errf("render: %v", err)
			return false
		}
		ap.ClearScreen()
		if err = ap.ShowScaledImage(fb.ToImage()); err != nil {
			log.Errf("show image: %v", err)
			return false
		}
		hud.UpdateFPS()
		hud.Draw(ap)
		return true
	})
	if err != nil {
		return log.FErrf("main loop: %v", err)
	}
	return 0
}
