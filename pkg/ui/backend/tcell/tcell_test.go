package tcell

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/input"
)

func newSimBackend(t *testing.T, cols, rows int, opts Options) (*Backend, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	b := NewWithScreen(screen, opts)
	cfg := backend.WindowConfig{Width: cols * b.opts.CellWidth, Height: rows * b.opts.CellHeight}
	if err := b.Open(cfg); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	screen.SetSize(cols, rows)
	t.Cleanup(b.Close)
	return b, screen
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.normalized()
	if o.CellWidth != 8 || o.CellHeight != 16 {
		t.Errorf("defaults = %+v", o)
	}
}

func TestFillRect_FlipsY(t *testing.T) {
	b, screen := newSimBackend(t, 10, 10, Options{CellWidth: 1, CellHeight: 1})

	// Bottom-left 2x3 block.
	b.FillRect(backend.NewRect(0, 0, 2, 3), backend.RGB(255, 0, 0))
	b.Present()

	for row := 0; row < 10; row++ {
		_, _, st, _ := screen.GetContent(0, row)
		_, bg, _ := st.Decompose()
		red := bg == tcell.NewRGBColor(255, 0, 0)
		want := row >= 7
		if red != want {
			t.Errorf("row %d red=%v want %v", row, red, want)
		}
	}
}

func TestFillRect_ScalesCells(t *testing.T) {
	b, screen := newSimBackend(t, 10, 5, Options{CellWidth: 8, CellHeight: 16})

	b.FillRect(backend.NewRect(16, 0, 16, 16), backend.RGB(0, 0, 255))
	b.Present()

	blue := tcell.NewRGBColor(0, 0, 255)
	check := func(col, row int, want bool) {
		_, _, st, _ := screen.GetContent(col, row)
		_, bg, _ := st.Decompose()
		if (bg == blue) != want {
			t.Errorf("cell (%d,%d) blue=%v want %v", col, row, bg == blue, want)
		}
	}
	check(2, 4, true)
	check(3, 4, true)
	check(1, 4, false)
	check(4, 4, false)
	check(2, 3, false)
}

func TestTransparentFillIsNoop(t *testing.T) {
	b, screen := newSimBackend(t, 4, 4, Options{CellWidth: 1, CellHeight: 1})
	b.FillRect(backend.NewRect(0, 0, 4, 4), backend.Transparent)
	b.Present()
	_, _, st, _ := screen.GetContent(0, 0)
	_, bg, _ := st.Decompose()
	if bg != tcell.ColorDefault {
		t.Errorf("transparent fill changed background to %v", bg)
	}
}

func TestDrawText_CentersAndKeepsBackground(t *testing.T) {
	b, screen := newSimBackend(t, 20, 5, Options{CellWidth: 1, CellHeight: 1})

	b.FillRect(backend.NewRect(0, 0, 20, 5), backend.RGB(10, 20, 30))
	b.DrawText(10, 2, "Go!", 20, backend.White)
	b.Present()

	row := 5 - 1 - 2
	var got []rune
	for col := 9; col < 12; col++ {
		r, _, st, _ := screen.GetContent(col, row)
		got = append(got, r)
		_, bg, _ := st.Decompose()
		if bg != tcell.NewRGBColor(10, 20, 30) {
			t.Errorf("text cell %d lost background", col)
		}
	}
	if string(got) != "Go!" {
		t.Errorf("text = %q", string(got))
	}
}

func TestStrokeRect_Corners(t *testing.T) {
	b, screen := newSimBackend(t, 6, 4, Options{CellWidth: 1, CellHeight: 1})
	b.StrokeRect(backend.NewRect(0, 0, 6, 4), backend.White)
	b.Present()

	corners := map[[2]int]rune{
		{0, 0}: tcell.RuneULCorner,
		{5, 0}: tcell.RuneURCorner,
		{0, 3}: tcell.RuneLLCorner,
		{5, 3}: tcell.RuneLRCorner,
	}
	for pos, want := range corners {
		r, _, _, _ := screen.GetContent(pos[0], pos[1])
		if r != want {
			t.Errorf("corner %v = %q want %q", pos, r, want)
		}
	}
}

func TestConvertMouse(t *testing.T) {
	tests := []struct {
		name       string
		prev, cur  tcell.ButtonMask
		wantAction input.MouseAction
		wantButton input.MouseButton
	}{
		{"press", tcell.ButtonNone, tcell.Button1, input.MousePress, input.MouseLeft},
		{"release", tcell.Button1, tcell.ButtonNone, input.MouseRelease, input.MouseLeft},
		{"drag", tcell.Button1, tcell.Button1, input.MouseMove, input.MouseLeft},
		{"hover", tcell.ButtonNone, tcell.ButtonNone, input.MouseMove, input.MouseNone},
		{"right press", tcell.ButtonNone, tcell.Button2, input.MousePress, input.MouseRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := convertMouse(1, 2, tt.prev, tt.cur)
			if ev.Action != tt.wantAction || ev.Button != tt.wantButton {
				t.Errorf("got %+v", ev)
			}
			if ev.X != 1 || ev.Y != 2 {
				t.Errorf("position not preserved: %+v", ev)
			}
		})
	}
}

func TestConvertEvent_MouseFlipsToWindowUnits(t *testing.T) {
	b, _ := newSimBackend(t, 10, 10, Options{CellWidth: 1, CellHeight: 1})

	ev := b.convertEvent(tcell.NewEventMouse(3, 0, tcell.Button1, tcell.ModNone))
	me, ok := ev.(input.MouseEvent)
	if !ok {
		t.Fatalf("expected MouseEvent, got %T", ev)
	}
	if me.X != 3 || me.Y != 9 || me.Action != input.MousePress {
		t.Errorf("converted = %+v", me)
	}
}

func TestConvertEvent_CtrlCCloses(t *testing.T) {
	b, _ := newSimBackend(t, 2, 2, Options{})
	ev := b.convertEvent(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl))
	if _, ok := ev.(input.CloseEvent); !ok {
		t.Errorf("expected CloseEvent, got %T", ev)
	}
}

func TestInjectAndPoll(t *testing.T) {
	b, _ := newSimBackend(t, 2, 2, Options{})
	b.Inject(input.Press(1, 1))
	b.Inject(nil)
	b.Inject(input.Release(1, 1))

	events := b.PollEvents()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if more := b.PollEvents(); len(more) != 0 {
		t.Errorf("queue should be drained, got %d", len(more))
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b, _ := newSimBackend(t, 2, 2, Options{})
	b.Close()
	b.Close()
}
