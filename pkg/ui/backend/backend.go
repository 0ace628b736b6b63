// Package backend defines the window backend interface for the widget runtime.
// This abstraction allows swapping between a native window (raylib), a
// terminal (tcell), a headless raster image and a simulation backend for tests.
//
// All coordinates are window units with the origin at the bottom-left corner;
// each backend converts to its own device space.
package backend

import "github.com/odvcencio/rapidgui/pkg/ui/input"

// WindowConfig describes the window a backend opens.
type WindowConfig struct {
	Width      int
	Height     int
	Title      string
	Background Color
}

// Canvas is the drawing subset of Backend.
// Widgets draw to this interface, not the full Backend.
type Canvas interface {
	// Size returns the window dimensions in window units.
	Size() (width, height int)

	// FillRect fills r with c. Fully transparent colors draw nothing.
	FillRect(r Rect, c Color)

	// StrokeRect outlines r with c.
	StrokeRect(r Rect, c Color)

	// DrawText draws text centered on (x, y) at the given font size.
	DrawText(x, y int, text string, size int, c Color)
}

// Backend is the window abstraction layer.
// A Backend is driven by exactly one goroutine, the render loop.
type Backend interface {
	Canvas

	// Name identifies the backend in logs.
	Name() string

	// Open creates the window.
	Open(cfg WindowConfig) error

	// Close destroys the window. Safe to call more than once.
	Close()

	// PollEvents returns the input gathered since the previous call without blocking.
	PollEvents() []input.Event

	// Clear starts a frame by filling the window with bg.
	Clear(bg Color)

	// Present finishes a frame and shows it.
	Present()
}

// Rect is a positioned rectangle; (X, Y) is its bottom-left corner.
type Rect struct {
	X, Y, Width, Height int
}

// NewRect creates a rect from position and size.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Contains returns true if the point is inside the rect, edges included.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center returns the rect's center point.
func (r Rect) Center() (x, y int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Inset returns a rect shrunk by n on every side.
func (r Rect) Inset(n int) Rect {
	return Rect{
		X:      r.X + n,
		Y:      r.Y + n,
		Width:  max(0, r.Width-2*n),
		Height: max(0, r.Height-2*n),
	}
}

// Intersection returns the overlapping area of two rects.
func (r Rect) Intersection(other Rect) Rect {
	x := max(r.X, other.X)
	y := max(r.Y, other.Y)
	x2 := min(r.X+r.Width, other.X+other.Width)
	y2 := min(r.Y+r.Height, other.Y+other.Height)
	if x2 <= x || y2 <= y {
		return Rect{}
	}
	return Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// FlipY converts a bottom-left origin y into a top-left origin row for a
// surface of the given height.
func FlipY(y, height int) int {
	return height - y
}
