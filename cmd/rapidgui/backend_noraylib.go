//go:build noraylib

package main

import (
	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
	"github.com/odvcencio/rapidgui/pkg/ui/backend"
)

const raylibAvailable = false

func newRaylibBackend() (backend.Backend, error) {
	return nil, rgerrors.New(rgerrors.ErrCodeBackendInit, "built without raylib support (noraylib tag)")
}
