// Package docwatch reports changes to a window document on disk so a preview
// can be rebuilt while the document is edited.
package docwatch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/logging"
)

// ChangeType describes the kind of file change observed.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
	ChangeRenamed  ChangeType = "renamed"
)

// DefaultDebounce is how long the file must stay quiet before a change is reported.
const DefaultDebounce = 100 * time.Millisecond

// Change is one settled change to the watched document.
type Change struct {
	Path string
	Type ChangeType
	Time time.Time
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *logging.Logger
}

// Watcher reports changes to a single file. It watches the parent directory
// because many editors save by writing a new file and renaming it over the
// old one.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *logging.Logger
	fs       *fsnotify.Watcher

	closeOnce sync.Once
}

// New starts watching path.
func New(path string, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, rgerrors.Wrap(err, rgerrors.ErrCodeDocumentRead, "failed to resolve document path").
			WithContext("path", path)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, rgerrors.Wrap(err, rgerrors.ErrCodeInternal, "failed to create file watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, rgerrors.Wrap(err, rgerrors.ErrCodeDocumentRead, "failed to watch document directory").
			WithContext("path", path)
	}

	return &Watcher{
		path:     abs,
		debounce: opts.Debounce,
		logger:   opts.Logger.WithComponent("docwatch"),
		fs:       fw,
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run calls fn for each settled change until ctx is cancelled or the watcher
// is closed. Bursts of events within the debounce window collapse into one
// call carrying the last event's type.
func (w *Watcher) Run(ctx context.Context, fn func(Change)) error {
	var (
		pending *Change
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			typ, ok := changeType(ev.Op)
			if !ok {
				continue
			}
			pending = &Change{Path: w.path, Type: typ, Time: time.Now()}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if pending != nil {
				w.logger.DocumentChanged(pending.Path, string(pending.Type))
				fn(*pending)
				pending = nil
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err.Error())
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() { err = w.fs.Close() })
	return err
}

func changeType(op fsnotify.Op) (ChangeType, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return ChangeDeleted, true
	case op.Has(fsnotify.Rename):
		return ChangeRenamed, true
	case op.Has(fsnotify.Create):
		return ChangeCreated, true
	case op.Has(fsnotify.Write):
		return ChangeModified, true
	default:
		return "", false
	}
}
