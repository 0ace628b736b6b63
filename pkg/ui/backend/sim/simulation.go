// Package sim provides a simulation backend for testing.
// It renders through tcell's simulation screen with one cell per window unit,
// so captures map directly onto window coordinates.
package sim

import (
	"errors"
	"strings"
	"sync"
	"time"

	tcellv2 "github.com/gdamore/tcell/v2"

	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/backend/tcell"
	"github.com/odvcencio/rapidgui/pkg/ui/input"
)

// ErrOpenRefused is returned by Open after FailOpen.
var ErrOpenRefused = errors.New("simulated window refused to open")

// Backend is a testable backend using tcell's simulation screen.
type Backend struct {
	*tcell.Backend
	screen tcellv2.SimulationScreen
	width  int
	height int

	mu       sync.Mutex
	frames   uint64
	frameCh  chan struct{}
	front    []tcellv2.SimCell
	frontW   int
	frontH   int
	failOpen error
	closes   int
	opened   bool
}

// New creates a new simulation backend with the given dimensions.
func New(width, height int) *Backend {
	screen := tcellv2.NewSimulationScreen("")

	return &Backend{
		Backend: tcell.NewWithScreen(screen, tcell.Options{CellWidth: 1, CellHeight: 1}),
		screen:  screen,
		width:   width,
		height:  height,
		frameCh: make(chan struct{}),
	}
}

// Name identifies the backend.
func (s *Backend) Name() string {
	return "sim"
}

// FailOpen makes the next Open return err.
func (s *Backend) FailOpen(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		err = ErrOpenRefused
	}
	s.failOpen = err
}

// Open initializes the simulation screen at the configured size.
func (s *Backend) Open(cfg backend.WindowConfig) error {
	s.mu.Lock()
	if s.failOpen != nil {
		err := s.failOpen
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if cfg.Width <= 0 {
		cfg.Width = s.width
	}
	if cfg.Height <= 0 {
		cfg.Height = s.height
	}
	if err := s.Backend.Open(cfg); err != nil {
		return err
	}
	s.screen.SetSize(s.width, s.height)

	s.mu.Lock()
	s.opened = true
	s.mu.Unlock()
	return nil
}

// Close finalizes the screen and counts the call.
func (s *Backend) Close() {
	s.mu.Lock()
	s.closes++
	s.mu.Unlock()
	s.Backend.Close()
}

// Closes returns how many times Close was called.
func (s *Backend) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// Opened reports whether Open succeeded.
func (s *Backend) Opened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Present shows the frame, keeps a copy of it for Capture and
// CellBackground, and wakes frame waiters.
func (s *Backend) Present() {
	s.Backend.Present()
	front, w, h := s.snapshot()

	s.mu.Lock()
	s.front, s.frontW, s.frontH = front, w, h
	s.frames++
	close(s.frameCh)
	s.frameCh = make(chan struct{})
	s.mu.Unlock()
}

// snapshot copies the simulation screen's front buffer. The screen keeps
// writing into that buffer on every Show, so readers only see copies.
func (s *Backend) snapshot() ([]tcellv2.SimCell, int, int) {
	cells, w, h := s.screen.GetContents()
	out := make([]tcellv2.SimCell, len(cells))
	for i, c := range cells {
		out[i] = tcellv2.SimCell{Style: c.Style, Runes: append([]rune(nil), c.Runes...)}
	}
	return out, w, h
}

// presented returns the last presented frame.
func (s *Backend) presented() ([]tcellv2.SimCell, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.front, s.frontW, s.frontH
}

// Frames returns the number of frames presented so far.
func (s *Backend) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// WaitFrames blocks until n more frames have been presented.
func (s *Backend) WaitFrames(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)

	s.mu.Lock()
	target := s.frames + uint64(n)
	for s.frames < target {
		ch := s.frameCh
		s.mu.Unlock()
		select {
		case <-ch:
		case <-deadline:
			return false
		}
		s.mu.Lock()
	}
	s.mu.Unlock()
	return true
}

// InjectPress injects a left-button press at window coordinates.
func (s *Backend) InjectPress(x, y int) {
	s.Inject(input.Press(x, y))
}

// InjectRelease injects a left-button release at window coordinates.
func (s *Backend) InjectRelease(x, y int) {
	s.Inject(input.Release(x, y))
}

// InjectClick injects a press followed by a release at the same point.
func (s *Backend) InjectClick(x, y int) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectMove injects a pointer move.
func (s *Backend) InjectMove(x, y int) {
	s.Inject(input.Move(x, y))
}

// InjectClose injects a window close request.
func (s *Backend) InjectClose() {
	s.Inject(input.CloseEvent{})
}

// Capture returns the last presented frame as a string, top row first.
func (s *Backend) Capture() string {
	cells, w, h := s.presented()
	var lines []string

	for y := 0; y < h; y++ {
		var line strings.Builder
		for x := 0; x < w; x++ {
			cell := cells[y*w+x]
			r := ' '
			if len(cell.Runes) > 0 && cell.Runes[0] != 0 {
				r = cell.Runes[0]
			}
			line.WriteRune(r)
		}
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}

// CellBackground returns the background color at window coordinates (x, y)
// in the last presented frame.
func (s *Backend) CellBackground(x, y int) backend.Color {
	cells, w, h := s.presented()
	row := h - 1 - y
	if x < 0 || x >= w || row < 0 || row >= h {
		return backend.Transparent
	}
	_, bg, _ := cells[row*w+x].Style.Decompose()
	return convertTcellColor(bg)
}

// FindText searches the last presented frame for text and returns its top-row-first position.
func (s *Backend) FindText(text string) (x, y int) {
	lines := strings.Split(s.Capture(), "\n")

	for row, line := range lines {
		if col := strings.Index(line, text); col >= 0 {
			return col, row
		}
	}
	return -1, -1
}

// ContainsText reports whether text appears anywhere in the last presented frame.
func (s *Backend) ContainsText(text string) bool {
	x, y := s.FindText(text)
	return x >= 0 && y >= 0
}

// convertTcellColor converts tcellv2.Color to backend.Color.
func convertTcellColor(tc tcellv2.Color) backend.Color {
	if tc == tcellv2.ColorDefault {
		return backend.Transparent
	}
	r, g, b := tc.RGB()
	return backend.RGB(uint8(r), uint8(g), uint8(b))
}

// Ensure Backend implements backend.Backend
var _ backend.Backend = (*Backend)(nil)
