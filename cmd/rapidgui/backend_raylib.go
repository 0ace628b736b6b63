//go:build !noraylib

package main

import (
	"github.com/odvcencio/rapidgui/pkg/ui/backend"
	"github.com/odvcencio/rapidgui/pkg/ui/backend/raylib"
)

const raylibAvailable = true

func newRaylibBackend() (backend.Backend, error) {
	return raylib.New(raylib.Options{}), nil
}
