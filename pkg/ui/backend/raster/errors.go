package raster

import (
	rgerrors "github.com/odvcencio/rapidgui/pkg/errors"
)

var errNotOpen = rgerrors.New(rgerrors.ErrCodeBackendInit, "raster backend was never opened")

func errInvalidSize(w, h int) error {
	return rgerrors.Newf(rgerrors.ErrCodeBackendInit, "invalid raster size %dx%d", w, h)
}
