// Package tcell provides a Backend implementation using tcell.
// The window is mapped onto terminal cells; each cell covers
// CellWidth x CellHeight window units.
package tcell

import (
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/input"
)

// Options configures the cell mapping.
type Options struct {
	CellWidth  int
	CellHeight int
}

func (o Options) normalized() Options {
	if o.CellWidth <= 0 {
		o.CellWidth = 8
	}
	if o.CellHeight <= 0 {
		o.CellHeight = 16
	}
	return o
}

// Backend implements backend.Backend using tcell.
type Backend struct {
	screen tcell.Screen
	opts   Options
	cfg    backend.WindowConfig

	mu      sync.Mutex
	pending []input.Event

	// Mouse button state seen by the event pump, used to derive press/release.
	lastButtons tcell.ButtonMask

	needsSync atomic.Bool
	opened    atomic.Bool
	closeOnce sync.Once
	pumpDone  chan struct{}
}

// New creates a new tcell backend on the controlling terminal.
func New(opts Options) (*Backend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(screen, opts), nil
}

// NewWithScreen creates a backend with an existing tcell screen (for testing).
func NewWithScreen(screen tcell.Screen, opts Options) *Backend {
	return &Backend{screen: screen, opts: opts.normalized()}
}

// Name identifies the backend.
func (b *Backend) Name() string {
	return "tcell"
}

// Screen exposes the underlying tcell screen.
func (b *Backend) Screen() tcell.Screen {
	return b.screen
}

// Open initializes the terminal and starts reading input.
func (b *Backend) Open(cfg backend.WindowConfig) error {
	if err := b.screen.Init(); err != nil {
		return err
	}
	b.cfg = cfg
	b.screen.EnableMouse()
	b.screen.HideCursor()
	if cfg.Title != "" {
		b.screen.SetTitle(cfg.Title)
	}
	b.opened.Store(true)
	b.pumpDone = make(chan struct{})
	go b.pump()
	return nil
}

// Close restores the terminal.
func (b *Backend) Close() {
	b.closeOnce.Do(func() {
		if !b.opened.Load() {
			return
		}
		b.screen.Fini()
		<-b.pumpDone
	})
}

// Size returns the window dimensions in window units.
func (b *Backend) Size() (width, height int) {
	return b.cfg.Width, b.cfg.Height
}

// Inject queues an event as if it had been read from the terminal.
func (b *Backend) Inject(ev input.Event) {
	if ev == nil {
		return
	}
	b.mu.Lock()
	b.pending = append(b.pending, ev)
	b.mu.Unlock()
}

// PollEvents returns the events gathered since the last call.
func (b *Backend) PollEvents() []input.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	events := b.pending
	b.pending = nil
	return events
}

// Clear fills the window area with bg.
func (b *Backend) Clear(bg backend.Color) {
	b.screen.Clear()
	b.FillRect(backend.NewRect(0, 0, b.cfg.Width, b.cfg.Height), bg)
}

// Present synchronizes the buffer to the terminal.
func (b *Backend) Present() {
	if b.needsSync.Swap(false) {
		b.screen.Sync()
		return
	}
	b.screen.Show()
}

// FillRect paints the cells covered by r.
func (b *Backend) FillRect(r backend.Rect, c backend.Color) {
	if c.IsTransparent() || r.Empty() {
		return
	}
	left, top, right, bottom := b.cellSpan(r)
	style := tcell.StyleDefault.Background(convertColor(c))
	for row := top; row < bottom; row++ {
		for col := left; col < right; col++ {
			b.screen.SetContent(col, row, ' ', nil, style)
		}
	}
}

// StrokeRect draws a box around the cells covered by r.
func (b *Backend) StrokeRect(r backend.Rect, c backend.Color) {
	if c.IsTransparent() || r.Empty() {
		return
	}
	left, top, right, bottom := b.cellSpan(r)
	if right-left < 1 || bottom-top < 1 {
		return
	}
	fg := convertColor(c)
	set := func(col, row int, ch rune) {
		b.screen.SetContent(col, row, ch, nil, b.styleAt(col, row).Foreground(fg))
	}
	for col := left; col < right; col++ {
		set(col, top, tcell.RuneHLine)
		set(col, bottom-1, tcell.RuneHLine)
	}
	for row := top; row < bottom; row++ {
		set(left, row, tcell.RuneVLine)
		set(right-1, row, tcell.RuneVLine)
	}
	set(left, top, tcell.RuneULCorner)
	set(right-1, top, tcell.RuneURCorner)
	set(left, bottom-1, tcell.RuneLLCorner)
	set(right-1, bottom-1, tcell.RuneLRCorner)
}

// DrawText writes text centered on (x, y), keeping the background already drawn.
func (b *Backend) DrawText(x, y int, text string, size int, c backend.Color) {
	if text == "" || c.IsTransparent() {
		return
	}
	col := x/b.opts.CellWidth - runewidth.StringWidth(text)/2
	row := b.rowAt(y)
	fg := convertColor(c)
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		b.screen.SetContent(col, row, r, nil, b.styleAt(col, row).Foreground(fg))
		col += w
	}
}

// cellSpan converts a window rect into a half-open cell range.
func (b *Backend) cellSpan(r backend.Rect) (left, top, right, bottom int) {
	cw, ch := b.opts.CellWidth, b.opts.CellHeight
	left = r.X / cw
	right = (r.X + r.Width + cw - 1) / cw
	top = backend.FlipY(r.Y+r.Height, b.cfg.Height) / ch
	bottom = (backend.FlipY(r.Y, b.cfg.Height) + ch - 1) / ch
	return left, top, right, bottom
}

// rowAt returns the cell row holding window row y.
func (b *Backend) rowAt(y int) int {
	return max(0, b.cfg.Height-1-y) / b.opts.CellHeight
}

func (b *Backend) styleAt(col, row int) tcell.Style {
	_, _, st, _ := b.screen.GetContent(col, row)
	_, bg, _ := st.Decompose()
	return tcell.StyleDefault.Background(bg)
}

// pump reads terminal events until the screen is finalized.
func (b *Backend) pump() {
	defer close(b.pumpDone)
	for {
		ev := b.screen.PollEvent()
		if ev == nil {
			return
		}
		b.Inject(b.convertEvent(ev))
	}
}

// convertEvent converts a tcell event to input.Event.
func (b *Backend) convertEvent(ev tcell.Event) input.Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		switch e.Key() {
		case tcell.KeyCtrlC:
			return input.CloseEvent{}
		case tcell.KeyEscape:
			return input.KeyEvent{Key: input.KeyEscape}
		case tcell.KeyEnter:
			return input.KeyEvent{Key: input.KeyEnter}
		case tcell.KeyRune:
			return input.KeyEvent{Key: input.KeyRune, Rune: e.Rune(), Ctrl: e.Modifiers()&tcell.ModCtrl != 0}
		default:
			return nil
		}
	case *tcell.EventResize:
		b.needsSync.Store(true)
		w, h := e.Size()
		return input.ResizeEvent{Width: w * b.opts.CellWidth, Height: h * b.opts.CellHeight}
	case *tcell.EventMouse:
		col, row := e.Position()
		x := col*b.opts.CellWidth + b.opts.CellWidth/2
		y := b.cfg.Height - 1 - (row*b.opts.CellHeight + b.opts.CellHeight/2)
		buttons := e.Buttons() & (tcell.Button1 | tcell.Button2 | tcell.Button3)
		prev := b.lastButtons
		b.lastButtons = buttons
		return convertMouse(x, y, prev, buttons)
	default:
		return nil
	}
}

// convertMouse derives a press, release or move from consecutive button masks.
func convertMouse(x, y int, prev, cur tcell.ButtonMask) input.MouseEvent {
	pressed := cur &^ prev
	released := prev &^ cur
	switch {
	case pressed != 0:
		return input.MouseEvent{X: x, Y: y, Button: convertButton(pressed), Action: input.MousePress}
	case released != 0:
		return input.MouseEvent{X: x, Y: y, Button: convertButton(released), Action: input.MouseRelease}
	default:
		return input.MouseEvent{X: x, Y: y, Button: convertButton(cur), Action: input.MouseMove}
	}
}

func convertButton(mask tcell.ButtonMask) input.MouseButton {
	switch {
	case mask&tcell.Button1 != 0:
		return input.MouseLeft
	case mask&tcell.Button2 != 0:
		return input.MouseRight
	case mask&tcell.Button3 != 0:
		return input.MouseMiddle
	default:
		return input.MouseNone
	}
}

// convertColor converts backend.Color to tcell.Color.
func convertColor(c backend.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Ensure Backend implements backend.Backend
var _ backend.Backend = (*Backend)(nil)
