package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/rapidgui/pkg/config"
)

const testDoc = `{
  "app-properties": {"width": 120, "height": 60, "background_color": [255, 255, 255]},
  "components": [
    {"meta": {"type": "button", "identifier": "mybutton"},
     "properties": {"x": 10, "y": 10, "width": 40, "height": 20, "label_text": "Start"}},
    {"meta": {"type": "progressbar", "identifier": "myprogressbar"},
     "properties": {"x": 10, "y": 35, "width": 100, "height": 15, "pct": 50}}
  ]
}`

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testConfig(t *testing.T, dir string) string {
	t.Helper()
	return writeFile(t, dir, "config.yaml", "frame_interval: 2ms\nlog:\n  level: info\n  format: json\n")
}

func TestParseOptions(t *testing.T) {
	var stderr bytes.Buffer

	opts, err := parseOptions([]string{"-backend", "raster", "-watch", "doc.json"}, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "raster", opts.backend)
	assert.True(t, opts.watch)
	assert.Equal(t, "doc.json", opts.document)

	_, err = parseOptions(nil, &stderr)
	assert.Equal(t, exitUsage, exitCodeForError(err))
	assert.Contains(t, stderr.String(), "Usage: rapidgui")

	_, err = parseOptions([]string{"-bogus", "doc.json"}, &stderr)
	assert.Equal(t, exitUsage, exitCodeForError(err))

	opts, err = parseOptions([]string{"-version"}, &stderr)
	require.NoError(t, err)
	assert.True(t, opts.version)
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-version"}, &stdout, &stderr))
	assert.True(t, strings.HasPrefix(stdout.String(), "rapidgui "))
}

func TestRun_Screenshot(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "example.json", testDoc)
	out := filepath.Join(dir, "shot.png")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", testConfig(t, dir), "-screenshot", out, doc}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}

func TestRun_DocumentErrorIsUsageError(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "bad.json", `{"components": [{"meta": {"type": "slider", "identifier": "s"}}]}`)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", testConfig(t, dir), "-backend", "raster", doc}, &stdout, &stderr)
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCodeForError(err))
}

func TestRun_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "example.json", testDoc)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", testConfig(t, dir), "-backend", "opengl", doc}, &stdout, &stderr)
	require.Error(t, err)
	assert.Equal(t, exitUsage, exitCodeForError(err))
}

func TestRun_ServicesStopWithContext(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "example.json", testDoc)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var stdout bytes.Buffer
	stderr := &syncBuffer{}
	err := run(ctx, []string{
		"-config", testConfig(t, dir),
		"-backend", "raster",
		"-relay", "memory",
		"-listen", "127.0.0.1:0",
		doc,
	}, &stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "inspect server listening")
	assert.Contains(t, stderr.String(), "render loop stopped")
}

func TestRun_WatchRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "example.json", testDoc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stderr := &syncBuffer{}
	errCh := make(chan error, 1)
	go func() {
		var stdout bytes.Buffer
		errCh <- run(ctx, []string{"-config", testConfig(t, dir), "-backend", "raster", "-watch", doc}, &stdout, stderr)
	}()

	require.Eventually(t, func() bool {
		return strings.Count(stderr.String(), `"scene loaded"`) == 1
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(doc, []byte(strings.Replace(testDoc, "Start", "Again", 1)), 0o644))

	require.Eventually(t, func() bool {
		return strings.Count(stderr.String(), `"scene loaded"`) == 2
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestResolveBackend(t *testing.T) {
	orig := isInteractiveTerminal
	t.Cleanup(func() { isInteractiveTerminal = orig })

	isInteractiveTerminal = func() bool { return true }
	assert.Equal(t, config.BackendTcell, resolveBackend(config.BackendAuto))
	assert.Equal(t, config.BackendRaster, resolveBackend(config.BackendRaster))

	isInteractiveTerminal = func() bool { return false }
	got := resolveBackend(config.BackendAuto)
	if raylibAvailable {
		assert.Equal(t, config.BackendRaylib, got)
	} else {
		assert.Equal(t, config.BackendRaster, got)
	}
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, 0, exitCodeForError(nil))
	assert.Equal(t, exitFailure, exitCodeForError(assert.AnError))
	assert.Equal(t, exitUsage, exitCodeForError(withExitCode(assert.AnError, exitUsage)))
	assert.Nil(t, withExitCode(nil, exitUsage))
}
