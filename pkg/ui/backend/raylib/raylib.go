// Package raylib provides a native window Backend using raylib.
//
// Raylib keeps its window state on the thread that created it, so every
// method must be called from the render goroutine, which the runtime locks
// to its OS thread. On macOS that has to be the main thread; see
// rapidgui.Manual.
package raylib

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/input"
)

// Options configures the native window.
type Options struct {
	// TargetFPS caps raylib's own frame pacing. Zero leaves pacing to the runtime.
	TargetFPS int
	// Verbose keeps raylib's info logging on stderr.
	Verbose bool
}

// Backend implements backend.Backend with a raylib window.
type Backend struct {
	opts   Options
	cfg    backend.WindowConfig
	open   bool
	mouseX int
	mouseY int
}

// New creates a raylib backend. No window exists until Open.
func New(opts Options) *Backend {
	return &Backend{opts: opts, mouseX: -1, mouseY: -1}
}

// Name identifies the backend.
func (b *Backend) Name() string { return "raylib" }

// Open creates the native window.
func (b *Backend) Open(cfg backend.WindowConfig) error {
	if !b.opts.Verbose {
		rl.SetTraceLogLevel(rl.LogWarning)
	}
	rl.InitWindow(int32(cfg.Width), int32(cfg.Height), cfg.Title)
	if !rl.IsWindowReady() {
		return rgerrors.New(rgerrors.ErrCodeBackendInit, "raylib window is not ready")
	}
	if b.opts.TargetFPS > 0 {
		rl.SetTargetFPS(int32(b.opts.TargetFPS))
	}
	b.cfg = cfg
	b.open = true
	return nil
}

// Close destroys the window.
func (b *Backend) Close() {
	if !b.open {
		return
	}
	b.open = false
	if rl.IsWindowReady() {
		rl.CloseWindow()
	}
}

// Size returns the window dimensions.
func (b *Backend) Size() (int, int) {
	return b.cfg.Width, b.cfg.Height
}

// PollEvents reads the input state raylib gathered during the last frame.
func (b *Backend) PollEvents() []input.Event {
	if !b.open {
		return nil
	}
	var events []input.Event
	if rl.WindowShouldClose() {
		events = append(events, input.CloseEvent{})
	}

	pos := rl.GetMousePosition()
	x, y := toWindow(pos.X, pos.Y, b.cfg.Height)
	if x != b.mouseX || y != b.mouseY {
		b.mouseX, b.mouseY = x, y
		events = append(events, input.Move(x, y))
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		events = append(events, input.Press(x, y))
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		events = append(events, input.Release(x, y))
	}
	return events
}

// Clear begins a frame.
func (b *Backend) Clear(bg backend.Color) {
	rl.BeginDrawing()
	rl.ClearBackground(toColor(bg))
}

// Present ends the frame and swaps buffers.
func (b *Backend) Present() {
	rl.EndDrawing()
}

// FillRect fills r with c.
func (b *Backend) FillRect(r backend.Rect, c backend.Color) {
	if c.IsTransparent() || r.Empty() {
		return
	}
	x, y, w, h := b.screenRect(r)
	rl.DrawRectangle(x, y, w, h, toColor(c))
}

// StrokeRect outlines r with c.
func (b *Backend) StrokeRect(r backend.Rect, c backend.Color) {
	if c.IsTransparent() || r.Empty() {
		return
	}
	x, y, w, h := b.screenRect(r)
	rl.DrawRectangleLines(x, y, w, h, toColor(c))
}

// DrawText draws text centered on (x, y) with raylib's default font.
func (b *Backend) DrawText(x, y int, text string, size int, c backend.Color) {
	if text == "" || c.IsTransparent() {
		return
	}
	width := rl.MeasureText(text, int32(size))
	sx := int32(x) - width/2
	sy := int32(backend.FlipY(y, b.cfg.Height)) - int32(size)/2
	rl.DrawText(text, sx, sy, int32(size), toColor(c))
}

func (b *Backend) screenRect(r backend.Rect) (x, y, w, h int32) {
	top := backend.FlipY(r.Y+r.Height, b.cfg.Height)
	return int32(r.X), int32(top), int32(r.Width), int32(r.Height)
}

// toWindow converts a raylib screen position (top-left origin) into window
// units with a bottom-left origin.
func toWindow(px, py float32, height int) (int, int) {
	return int(px), backend.FlipY(int(py), height) - 1
}

func toColor(c backend.Color) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}
