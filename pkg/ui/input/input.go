// Package input provides the window input events produced by backends.
// Coordinates are window units with the origin at the bottom-left corner.
package input

// Event represents a window input event.
type Event interface {
	eventMarker()
}

// MouseEvent represents a mouse input event.
type MouseEvent struct {
	X, Y   int
	Button MouseButton
	Action MouseAction
}

func (MouseEvent) eventMarker() {}

// KeyEvent represents a key press.
type KeyEvent struct {
	Key  Key
	Rune rune
	Ctrl bool
}

func (KeyEvent) eventMarker() {}

// ResizeEvent indicates the window size changed.
type ResizeEvent struct {
	Width  int
	Height int
}

func (ResizeEvent) eventMarker() {}

// CloseEvent indicates the user asked to close the window.
type CloseEvent struct{}

func (CloseEvent) eventMarker() {}

// MouseButton identifies which mouse button was involved.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
)

func (b MouseButton) String() string {
	switch b {
	case MouseLeft:
		return "left"
	case MouseMiddle:
		return "middle"
	case MouseRight:
		return "right"
	default:
		return "none"
	}
}

// MouseAction identifies what happened with the mouse.
type MouseAction int

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMove
)

func (a MouseAction) String() string {
	switch a {
	case MousePress:
		return "press"
	case MouseRelease:
		return "release"
	default:
		return "move"
	}
}

// Key represents special keys.
type Key int

const (
	KeyNone Key = iota
	KeyRune     // Regular character
	KeyEnter
	KeyEscape
	KeyCtrlC
)

// Press returns a left-button press at (x, y).
func Press(x, y int) MouseEvent {
	return MouseEvent{X: x, Y: y, Button: MouseLeft, Action: MousePress}
}

// Release returns a left-button release at (x, y).
func Release(x, y int) MouseEvent {
	return MouseEvent{X: x, Y: y, Button: MouseLeft, Action: MouseRelease}
}

// Move returns a pointer move to (x, y).
func Move(x, y int) MouseEvent {
	return MouseEvent{X: x, Y: y, Action: MouseMove}
}
