// Package raster provides a headless Backend that draws into an in-memory
// image. Finished frames can be snapshotted or written out as PNG.
package raster

import (
	"image"
	"image/png"
	"io"
	"os"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/input"
)

// Backend renders frames into an NRGBA image, one pixel per window unit.
type Backend struct {
	cfg  backend.WindowConfig
	back *image.NRGBA
	face font.Face

	mu      sync.Mutex
	front   *image.NRGBA
	frames  uint64
	pending []input.Event
	closed  bool
}

// New creates a raster backend. The image is allocated on Open.
func New() *Backend {
	return &Backend{face: basicfont.Face7x13}
}

// Name identifies the backend.
func (b *Backend) Name() string { return "raster" }

// Open allocates the frame buffers.
func (b *Backend) Open(cfg backend.WindowConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errInvalidSize(cfg.Width, cfg.Height)
	}
	b.cfg = cfg
	b.back = image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))

	b.mu.Lock()
	b.front = image.NewNRGBA(b.back.Rect)
	b.closed = false
	b.mu.Unlock()
	return nil
}

// Close marks the backend closed. The last presented frame stays available.
func (b *Backend) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

// Size returns the window dimensions.
func (b *Backend) Size() (int, int) {
	return b.cfg.Width, b.cfg.Height
}

// Inject queues an input event for the next PollEvents.
func (b *Backend) Inject(ev input.Event) {
	b.mu.Lock()
	b.pending = append(b.pending, ev)
	b.mu.Unlock()
}

// PollEvents returns injected events. A raster window has no input of its own.
func (b *Backend) PollEvents() []input.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.pending
	b.pending = nil
	return events
}

// Clear fills the back buffer with bg.
func (b *Backend) Clear(bg backend.Color) {
	if b.back == nil {
		return
	}
	draw.Draw(b.back, b.back.Rect, image.NewUniform(bg.NRGBA()), image.Point{}, draw.Src)
}

// Present publishes the back buffer as the current frame.
func (b *Backend) Present() {
	if b.back == nil {
		return
	}
	b.mu.Lock()
	copy(b.front.Pix, b.back.Pix)
	b.frames++
	b.mu.Unlock()
}

// FillRect blends c over r.
func (b *Backend) FillRect(r backend.Rect, c backend.Color) {
	if b.back == nil || c.IsTransparent() {
		return
	}
	dst := b.device(r)
	if dst.Empty() {
		return
	}
	draw.Draw(b.back, dst, image.NewUniform(c.NRGBA()), image.Point{}, draw.Over)
}

// StrokeRect draws a one unit outline along the inside of r.
func (b *Backend) StrokeRect(r backend.Rect, c backend.Color) {
	if r.Empty() {
		return
	}
	b.FillRect(backend.NewRect(r.X, r.Y, r.Width, 1), c)
	b.FillRect(backend.NewRect(r.X, r.Y+r.Height-1, r.Width, 1), c)
	b.FillRect(backend.NewRect(r.X, r.Y, 1, r.Height), c)
	b.FillRect(backend.NewRect(r.X+r.Width-1, r.Y, 1, r.Height), c)
}

// DrawText draws text centered on (x, y) with a fixed bitmap face.
// The size argument is ignored.
func (b *Backend) DrawText(x, y int, text string, _ int, c backend.Color) {
	if b.back == nil || text == "" || c.IsTransparent() {
		return
	}
	d := &font.Drawer{
		Dst:  b.back,
		Src:  image.NewUniform(c.NRGBA()),
		Face: b.face,
	}
	m := b.face.Metrics()
	width := d.MeasureString(text)
	cy := backend.FlipY(y, b.cfg.Height)
	baseline := fixed.I(cy) + (m.Ascent-m.Descent)/2
	d.Dot = fixed.Point26_6{X: fixed.I(x) - width/2, Y: baseline}
	d.DrawString(text)
}

// device converts a window rect to image space, clipped to the image.
func (b *Backend) device(r backend.Rect) image.Rectangle {
	top := backend.FlipY(r.Y+r.Height, b.cfg.Height)
	bottom := backend.FlipY(r.Y, b.cfg.Height)
	return image.Rect(r.X, top, r.X+r.Width, bottom).Intersect(b.back.Rect)
}

// Frames returns the number of presented frames.
func (b *Backend) Frames() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Snapshot returns a copy of the last presented frame, or nil before Open.
func (b *Backend) Snapshot() *image.NRGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.front == nil {
		return nil
	}
	img := image.NewNRGBA(b.front.Rect)
	copy(img.Pix, b.front.Pix)
	return img
}

// At returns the color of the last presented frame at window coordinates.
func (b *Backend) At(x, y int) backend.Color {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.front == nil {
		return backend.Transparent
	}
	c := b.front.NRGBAAt(x, backend.FlipY(y, b.cfg.Height)-1)
	return backend.RGBA(c.R, c.G, c.B, c.A)
}

// WritePNG encodes the last presented frame.
func (b *Backend) WritePNG(w io.Writer) error {
	img := b.Snapshot()
	if img == nil {
		return errNotOpen
	}
	return png.Encode(w, img)
}

// SavePNG writes the last presented frame to path.
func (b *Backend) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := b.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
