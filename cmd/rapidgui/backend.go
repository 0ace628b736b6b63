package main

import (
	"os"

	"golang.org/x/term"

	"github.com/odvcencio/rapidgui/pkg/config"
	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/backend/raster"
	"github.com/odvcencio/rapidgui/pkg/ui/backend/tcell"
)

// isInteractiveTerminal is swapped out by tests.
var isInteractiveTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) &&
		term.IsTerminal(int(os.Stdout.Fd()))
}

// resolveBackend turns "auto" into a concrete backend: the terminal when one
// is attached, a native window otherwise.
func resolveBackend(name string) string {
	if name != config.BackendAuto {
		return name
	}
	if isInteractiveTerminal() {
		return config.BackendTcell
	}
	if raylibAvailable {
		return config.BackendRaylib
	}
	return config.BackendRaster
}

func newBackend(name string, cfg *config.Config) (backend.Backend, error) {
	switch name {
	case config.BackendTcell:
		b, err := tcell.New(tcell.Options{
			CellWidth:  cfg.Terminal.CellWidth,
			CellHeight: cfg.Terminal.CellHeight,
		})
		if err != nil {
			return nil, rgerrors.Wrap(err, rgerrors.ErrCodeBackendInit, "failed to create terminal backend")
		}
		return b, nil
	case config.BackendRaylib:
		return newRaylibBackend()
	case config.BackendRaster:
		return raster.New(), nil
	default:
		return nil, rgerrors.Newf(rgerrors.ErrCodeBackendInit, "unknown backend %q", name)
	}
}
