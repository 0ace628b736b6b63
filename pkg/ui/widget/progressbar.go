package widget

import (
	"math"

	"github.com/odvcencio/rapidgui/pkg/ui/backend"
)

// ProgressBar properties beyond the common geometry.
const (
	PropPct         = "pct"
	PropBarColor    = "bar_color"
	PropBorderWidth = "border_width"
)

// ProgressBarSchema is the property table of "progressbar". Runtime pct
// values are clamped to [0, 100]; document values outside it are rejected.
var ProgressBarSchema = NewSchema("progressbar",
	[]Property{
		IntProperty(PropX, 0),
		IntProperty(PropY, 0),
		IntProperty(PropWidth, 10, NonNegative),
		IntProperty(PropHeight, 10, NonNegative),
		ColorProperty(PropBackgroundColor, backend.Transparent),
		IntProperty(PropPct, 20, Range(0, 100)).WithCoerce(Clamp(0, 100)),
		ColorProperty(PropBarColor, backend.RGB(64, 219, 211)),
		IntProperty(PropBorderWidth, 5, NonNegative),
	},
	nil,
)

func init() {
	Register(Type{Schema: ProgressBarSchema, New: NewProgressBar}, "progress_bar")
}

// ProgressBar shows a percentage as a filled inner bar. The drawn fill eases
// halfway toward its target every frame.
type ProgressBar struct {
	Base
	shown float64
}

// NewProgressBar creates a progress bar from resolved values.
func NewProgressBar(id string, values map[string]any) Widget {
	p := &ProgressBar{Base: NewBase(id, ProgressBarSchema, values)}
	p.shown = math.Trunc(p.target())
	return p
}

// Pct returns the logical percentage.
func (p *ProgressBar) Pct() int {
	return p.Int(PropPct)
}

// ShownWidth returns the width of the inner bar as last drawn.
func (p *ProgressBar) ShownWidth() int {
	return int(p.shown)
}

// HitTest always fails; progress bars take no input.
func (p *ProgressBar) HitTest(int, int) bool {
	return false
}

func (p *ProgressBar) Tick() {
	target := p.target()
	p.shown = (p.shown + target) / 2
	if math.Abs(p.shown-target) < 0.5 {
		p.shown = target
	}
}

func (p *ProgressBar) Draw(c backend.Canvas) {
	r := p.Bounds()
	c.FillRect(r, p.Color(PropBackgroundColor))

	inner := r.Inset(p.Int(PropBorderWidth))
	inner.Width = min(inner.Width, p.ShownWidth())
	c.FillRect(inner, p.Color(PropBarColor))
}

// innerWidth is the widest the bar can be.
func (p *ProgressBar) innerWidth() int {
	return max(0, p.Int(PropWidth)-2*p.Int(PropBorderWidth))
}

func (p *ProgressBar) target() float64 {
	return float64(p.innerWidth()) * float64(p.Pct()) / 100
}
