package raster

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/input"
)

func openBackend(t *testing.T, w, h int) *Backend {
	t.Helper()
	b := New()
	require.NoError(t, b.Open(backend.WindowConfig{Width: w, Height: h}))
	return b
}

func TestOpen_InvalidSize(t *testing.T) {
	err := New().Open(backend.WindowConfig{Width: 0, Height: 10})
	assert.True(t, rgerrors.IsCode(err, rgerrors.ErrCodeBackendInit))
}

func TestFillRect_BottomLeftOrigin(t *testing.T) {
	b := openBackend(t, 20, 10)
	red := backend.RGB(255, 0, 0)

	b.Clear(backend.White)
	b.FillRect(backend.NewRect(2, 0, 3, 2), red)
	b.Present()

	assert.Equal(t, red, b.At(2, 0))
	assert.Equal(t, red, b.At(4, 1))
	assert.Equal(t, backend.White, b.At(5, 0))
	assert.Equal(t, backend.White, b.At(2, 2))

	// Row 0 of the image is the top of the window.
	img := b.Snapshot()
	assert.Equal(t, uint8(255), img.NRGBAAt(2, 9).R)
	assert.Equal(t, uint8(255), img.NRGBAAt(2, 0).G)
}

func TestFillRect_ClipsAndSkipsTransparent(t *testing.T) {
	b := openBackend(t, 10, 10)
	b.Clear(backend.Black)
	b.FillRect(backend.NewRect(8, 8, 10, 10), backend.White)
	b.FillRect(backend.NewRect(0, 0, 5, 5), backend.Transparent)
	b.Present()

	assert.Equal(t, backend.White, b.At(9, 9))
	assert.Equal(t, backend.Black, b.At(0, 0))
}

func TestStrokeRect(t *testing.T) {
	b := openBackend(t, 10, 10)
	b.Clear(backend.White)
	b.StrokeRect(backend.NewRect(1, 1, 5, 5), backend.Black)
	b.Present()

	assert.Equal(t, backend.Black, b.At(1, 1))
	assert.Equal(t, backend.Black, b.At(5, 5))
	assert.Equal(t, backend.Black, b.At(3, 1))
	assert.Equal(t, backend.White, b.At(3, 3))
}

func TestDrawText_MarksPixelsNearCenter(t *testing.T) {
	b := openBackend(t, 60, 30)
	b.Clear(backend.White)
	b.DrawText(30, 15, "Go", 20, backend.Black)
	b.Present()

	dark := 0
	img := b.Snapshot()
	for y := 0; y < 30; y++ {
		for x := 0; x < 60; x++ {
			if img.NRGBAAt(x, y).R < 128 {
				dark++
				assert.InDelta(t, 30, x, 8)
				assert.InDelta(t, 15, y, 8)
			}
		}
	}
	assert.Positive(t, dark)
}

func TestPresent_OnlyPublishesFinishedFrames(t *testing.T) {
	b := openBackend(t, 4, 4)
	b.Clear(backend.White)
	b.Present()
	b.Clear(backend.Black)

	assert.Equal(t, backend.White, b.At(0, 0))
	assert.Equal(t, uint64(1), b.Frames())
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, New().WritePNG(&buf))

	b := openBackend(t, 8, 6)
	b.Clear(backend.RGB(1, 2, 3))
	b.Present()
	require.NoError(t, b.WritePNG(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
}

func TestInjectAndPoll(t *testing.T) {
	b := openBackend(t, 4, 4)
	b.Inject(input.Press(1, 1))
	b.Inject(input.CloseEvent{})

	events := b.PollEvents()
	require.Len(t, events, 2)
	assert.Equal(t, input.Press(1, 1), events[0])
	assert.Empty(t, b.PollEvents())
}
