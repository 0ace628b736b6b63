package runtime

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/backend/sim"
	"github.com/odvcencio/rapidgui/pkg/ui/scene"
)

const testDoc = `{
  "app-properties": {"width": 60, "height": 40, "background_color": [0, 0, 0]},
  "components": [
    {"meta": {"type": "button", "identifier": "mybutton"},
     "properties": {"x": 5, "y": 5, "width": 20, "height": 10, "label_text": "Go", "background_color": [200, 0, 0]}},
    {"meta": {"type": "progressbar", "identifier": "myprogressbar"},
     "properties": {"x": 5, "y": 25, "width": 50, "height": 10, "border_width": 2, "pct": 0,
                    "background_color": [0, 0, 200]}}
  ]
}`

const waitTimeout = 2 * time.Second

func newRuntime(t *testing.T, observers ...Observer) (*Runtime, *sim.Backend) {
	t.Helper()
	doc, err := scene.Decode(strings.NewReader(testDoc))
	require.NoError(t, err)
	sc, err := scene.Build(doc)
	require.NoError(t, err)

	be := sim.New(sc.Window.Width, sc.Window.Height)
	rt, err := New(Config{
		Scene:         sc,
		Backend:       be,
		FrameInterval: time.Millisecond,
		Observers:     observers,
	})
	require.NoError(t, err)
	return rt, be
}

func startRuntime(t *testing.T, observers ...Observer) (*Runtime, *sim.Backend) {
	t.Helper()
	rt, be := newRuntime(t, observers...)
	ctx, cancel := context.WithCancel(context.Background())
	rt.Start(ctx)
	t.Cleanup(func() {
		cancel()
		rt.Close()
		select {
		case <-rt.Done():
		case <-time.After(waitTimeout):
			t.Error("runtime did not stop")
		}
	})
	require.True(t, be.WaitFrames(1, waitTimeout), "no frame rendered")
	return rt, be
}

// click injects a full press-release and waits until the loop has handled it.
func click(t *testing.T, be *sim.Backend, x, y int) {
	t.Helper()
	be.InjectClick(x, y)
	require.True(t, be.WaitFrames(2, waitTimeout))
}

func mustGet(t *testing.T, rt *Runtime, id, prop string) any {
	t.Helper()
	v, err := rt.Get(id, prop)
	require.NoError(t, err)
	return v
}

func TestNew_RequiresSceneAndBackend(t *testing.T) {
	_, err := New(Config{Backend: sim.New(1, 1)})
	assert.Error(t, err)

	sc, err := scene.Build(&scene.Document{})
	require.NoError(t, err)
	_, err = New(Config{Scene: sc})
	assert.Error(t, err)
}

func TestRuntime_SetPctClamps(t *testing.T) {
	rt, _ := startRuntime(t)

	tests := []struct {
		in   int
		want int
	}{
		{-10, 0},
		{150, 100},
		{37, 37},
	}
	for _, tt := range tests {
		require.NoError(t, rt.Set("myprogressbar", "pct", tt.in))
		assert.Equal(t, tt.want, mustGet(t, rt, "myprogressbar", "pct"), "set_pct(%d)", tt.in)
	}

	// Writing back what was read changes nothing.
	before := mustGet(t, rt, "myprogressbar", "pct")
	require.NoError(t, rt.Set("myprogressbar", "pct", before))
	assert.Equal(t, before, mustGet(t, rt, "myprogressbar", "pct"))
}

func TestRuntime_DisabledButtonDoesNotFire(t *testing.T) {
	rt, be := startRuntime(t)

	var presses atomic.Int32
	require.NoError(t, rt.Subscribe("mybutton", "on_pressed", func(SignalEvent) { presses.Add(1) }, false))
	require.NoError(t, rt.Set("mybutton", "enabled", false))
	// A Get is answered only after every earlier command has been applied.
	assert.Equal(t, false, mustGet(t, rt, "mybutton", "enabled"))

	click(t, be, 10, 10)
	click(t, be, 10, 10)
	assert.Equal(t, int32(0), presses.Load())

	require.NoError(t, rt.Set("mybutton", "enabled", true))
	assert.Equal(t, true, mustGet(t, rt, "mybutton", "enabled"))

	click(t, be, 10, 10)
	assert.Equal(t, int32(1), presses.Load())
	click(t, be, 10, 10)
	assert.Equal(t, int32(2), presses.Load())
}

func TestRuntime_SubscribersRunInOrder(t *testing.T) {
	rt, be := startRuntime(t)

	var mu sync.Mutex
	var order []string
	record := func(name string) Handler {
		return func(ev SignalEvent) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			assert.Equal(t, "mybutton", ev.Widget)
			assert.Equal(t, "on_pressed", ev.Signal)
			assert.NotZero(t, ev.Frame)
		}
	}
	require.NoError(t, rt.Subscribe("mybutton", "on_pressed", record("first"), false))
	require.NoError(t, rt.Subscribe("mybutton", "on_pressed", record("second"), false))
	mustGet(t, rt, "mybutton", "enabled")

	click(t, be, 10, 10)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRuntime_ConcurrentSetsLastWriterWins(t *testing.T) {
	rt, _ := startRuntime(t)

	for i := 0; i < 20; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, rt.Set("myprogressbar", "pct", 30))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, rt.Set("myprogressbar", "pct", 70))
		}()
		wg.Wait()

		got := mustGet(t, rt, "myprogressbar", "pct")
		assert.Contains(t, []any{30, 70}, got)
	}
}

func TestRuntime_PerCallerOrder(t *testing.T) {
	rt, _ := startRuntime(t)

	for i := 0; i <= 100; i++ {
		require.NoError(t, rt.Set("myprogressbar", "pct", i))
	}
	assert.Equal(t, 100, mustGet(t, rt, "myprogressbar", "pct"))
}

func TestRuntime_CallerErrors(t *testing.T) {
	rt, _ := startRuntime(t)

	_, err := rt.Get("nope", "pct")
	assert.ErrorIs(t, err, rgerrors.ErrUnknownIdentifier)

	_, err = rt.Get("myprogressbar", "label_text")
	assert.ErrorIs(t, err, rgerrors.ErrInvalidProperty)

	err = rt.Set("mybutton", "enabled", "no")
	assert.ErrorIs(t, err, rgerrors.ErrInvalidValue)

	err = rt.Subscribe("myprogressbar", "on_pressed", func(SignalEvent) {}, false)
	assert.ErrorIs(t, err, rgerrors.ErrInvalidProperty)

	// The loop is unaffected.
	assert.Equal(t, 0, mustGet(t, rt, "myprogressbar", "pct"))
}

func TestRuntime_CloseFailsCommands(t *testing.T) {
	rt, be := startRuntime(t)

	rt.Close()

	done := make(chan error, 1)
	go func() {
		_, err := rt.Get("myprogressbar", "pct")
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, rgerrors.ErrSceneClosed)
	case <-time.After(waitTimeout):
		t.Fatal("Get blocked after Close")
	}

	assert.ErrorIs(t, rt.Set("myprogressbar", "pct", 5), rgerrors.ErrSceneClosed)
	assert.ErrorIs(t, rt.Subscribe("mybutton", "on_pressed", func(SignalEvent) {}, false), rgerrors.ErrSceneClosed)

	require.NoError(t, rt.Wait())
	assert.Equal(t, 1, be.Closes())
}

func TestRuntime_WindowCloseStopsLoop(t *testing.T) {
	rt, be := startRuntime(t)

	be.InjectClose()
	select {
	case <-rt.Done():
	case <-time.After(waitTimeout):
		t.Fatal("loop did not stop on close event")
	}

	_, err := rt.Get("myprogressbar", "pct")
	assert.ErrorIs(t, err, rgerrors.ErrSceneClosed)
	assert.Equal(t, 1, be.Closes())
}

func TestRuntime_ContextCancelStopsLoop(t *testing.T) {
	rt, be := newRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- rt.Run(ctx) }()
	require.True(t, be.WaitFrames(1, waitTimeout))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("Run did not return")
	}
	assert.ErrorIs(t, rt.Run(context.Background()), ErrAlreadyRunning)
}

func TestRuntime_BackendOpenFailure(t *testing.T) {
	rt, be := newRuntime(t)
	be.FailOpen(nil)

	rt.Start(context.Background())
	err := rt.Wait()
	require.Error(t, err)
	assert.True(t, rgerrors.IsCode(err, rgerrors.ErrCodeBackendInit))
	assert.ErrorIs(t, err, sim.ErrOpenRefused)

	_, err = rt.Get("myprogressbar", "pct")
	assert.ErrorIs(t, err, rgerrors.ErrSceneClosed)
	assert.Equal(t, 1, be.Closes())
}

func TestRuntime_CloseBeforeStart(t *testing.T) {
	rt, be := newRuntime(t)
	rt.Close()
	rt.Start(context.Background())

	require.NoError(t, rt.Wait())
	assert.False(t, be.Opened())
	assert.Equal(t, 1, be.Closes())
}

func TestRuntime_ReentrantCallsFromCallback(t *testing.T) {
	rt, be := startRuntime(t)

	type result struct {
		pct   any
		label any
		err   error
	}
	results := make(chan result, 1)

	require.NoError(t, rt.Subscribe("mybutton", "on_pressed", func(SignalEvent) {
		if err := rt.Set("mybutton", "enabled", false); err != nil {
			results <- result{err: err}
			return
		}
		if err := rt.Set("myprogressbar", "pct", 55); err != nil {
			results <- result{err: err}
			return
		}
		if err := rt.Set("mybutton", "label_text", "Busy"); err != nil {
			results <- result{err: err}
			return
		}
		pct, err := rt.Get("myprogressbar", "pct")
		if err != nil {
			results <- result{err: err}
			return
		}
		label, err := rt.Get("mybutton", "label_text")
		if err != nil {
			results <- result{err: err}
			return
		}
		// Nested subscription from inside a callback.
		err = rt.Subscribe("mybutton", "on_hover_end", func(SignalEvent) {}, false)
		results <- result{pct: pct, label: label, err: err}
	}, false))
	mustGet(t, rt, "mybutton", "enabled")

	be.InjectClick(10, 10)

	select {
	case res := <-results:
		require.NoError(t, res.err)
		assert.Equal(t, 55, res.pct)
		assert.Equal(t, "Busy", res.label)
	case <-time.After(waitTimeout):
		t.Fatal("reentrant callback deadlocked")
	}

	assert.Equal(t, false, mustGet(t, rt, "mybutton", "enabled"))
}

func TestRuntime_PanickingCallbackIsRecovered(t *testing.T) {
	rt, be := startRuntime(t)
	panicsBefore := testutil.ToFloat64(metricCallbackPanics)

	var after atomic.Int32
	require.NoError(t, rt.Subscribe("mybutton", "on_pressed", func(SignalEvent) { panic("boom") }, false))
	require.NoError(t, rt.Subscribe("mybutton", "on_pressed", func(SignalEvent) { after.Add(1) }, false))
	mustGet(t, rt, "mybutton", "enabled")

	click(t, be, 10, 10)
	click(t, be, 10, 10)

	assert.Equal(t, int32(2), after.Load())
	assert.Equal(t, panicsBefore+2, testutil.ToFloat64(metricCallbackPanics))
	assert.Equal(t, 0, mustGet(t, rt, "myprogressbar", "pct"))
}

func TestRuntime_DetachedSkipsWhileRunning(t *testing.T) {
	rt, be := startRuntime(t)

	release := make(chan struct{})
	started := make(chan struct{}, 10)
	var calls atomic.Int32
	require.NoError(t, rt.Subscribe("mybutton", "on_pressed", func(SignalEvent) {
		calls.Add(1)
		// Detached callbacks run off the loop, so queued calls work.
		_ = rt.Set("myprogressbar", "pct", 90)
		started <- struct{}{}
		<-release
	}, true))
	mustGet(t, rt, "mybutton", "enabled")

	click(t, be, 10, 10)
	select {
	case <-started:
	case <-time.After(waitTimeout):
		t.Fatal("detached callback never ran")
	}

	// The loop keeps rendering while the callback blocks.
	click(t, be, 10, 10)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 90, mustGet(t, rt, "myprogressbar", "pct"))

	close(release)
	require.Eventually(t, func() bool {
		be.InjectClick(10, 10)
		be.WaitFrames(2, waitTimeout)
		return calls.Load() >= 2
	}, waitTimeout, 10*time.Millisecond)
}

func TestRuntime_Observers(t *testing.T) {
	events := make(chan SignalEvent, 10)
	rt, be := startRuntime(t, ObserverFunc(func(ev SignalEvent) { events <- ev }))
	_ = rt

	click(t, be, 10, 10)

	select {
	case ev := <-events:
		assert.Equal(t, "mybutton", ev.Widget)
		assert.Equal(t, "on_pressed", ev.Signal)
	case <-time.After(waitTimeout):
		t.Fatal("observer not notified")
	}
}

func TestRuntime_HoverSignals(t *testing.T) {
	rt, be := startRuntime(t)

	signals := make(chan string, 10)
	for _, name := range []string{"on_hover_begin", "on_hover_end"} {
		require.NoError(t, rt.Subscribe("mybutton", name, func(ev SignalEvent) { signals <- ev.Signal }, false))
	}
	mustGet(t, rt, "mybutton", "enabled")

	be.InjectMove(10, 10)
	be.InjectMove(50, 38)
	require.True(t, be.WaitFrames(2, waitTimeout))

	assert.Equal(t, "on_hover_begin", <-signals)
	assert.Equal(t, "on_hover_end", <-signals)
}

func TestRuntime_Draws(t *testing.T) {
	rt, be := startRuntime(t)

	require.NoError(t, rt.Set("myprogressbar", "pct", 100))
	mustGet(t, rt, "myprogressbar", "pct")
	require.True(t, be.WaitFrames(20, waitTimeout))

	assert.Equal(t, backend.RGB(200, 0, 0), be.CellBackground(6, 6), "button body")
	assert.Equal(t, backend.RGB(0, 0, 0), be.CellBackground(58, 2), "window background")
	assert.Equal(t, backend.RGB(64, 219, 211), be.CellBackground(52, 30), "bar fill")
	assert.Equal(t, backend.RGB(0, 0, 200), be.CellBackground(6, 26), "bar border")
	assert.True(t, be.ContainsText("Go"))
	assert.Greater(t, rt.Frame(), uint64(20))
}

func TestQueue(t *testing.T) {
	q := NewQueue()
	require.NoError(t, q.Push(Set{Widget: "a", Property: "pct", Value: 1}))
	require.NoError(t, q.Push(Set{Widget: "b", Property: "pct", Value: 2}))
	assert.Equal(t, 2, q.Len())

	cmds := q.Drain()
	require.Len(t, cmds, 2)
	assert.Equal(t, "a", cmds[0].Target())
	assert.Equal(t, "b", cmds[1].Target())
	assert.Nil(t, q.Drain())

	reply := make(chan Result, 1)
	require.NoError(t, q.Push(Get{Widget: "a", Property: "pct", Reply: reply}))
	pending := q.Close()
	require.Len(t, pending, 1)
	assert.True(t, q.Closed())

	err := q.Push(Set{Widget: "a"})
	assert.ErrorIs(t, err, rgerrors.ErrSceneClosed)
	assert.Empty(t, q.Close())
}

func TestGoroutineID(t *testing.T) {
	id := goroutineID()
	assert.NotZero(t, id)
	assert.Equal(t, id, goroutineID())

	other := make(chan uint64)
	go func() { other <- goroutineID() }()
	assert.NotEqual(t, id, <-other)
}
