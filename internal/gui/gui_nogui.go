//go:build nogui

package gui

import (
	"context"

	"marky/internal/config"
	"marky/internal/errors"
)

// Options mirrors the GUI build so callers compile either way.
type Options struct {
	Path          string
	NativeDialogs bool
}

// Run is a stub for builds with the GUI disabled
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	return errors.New("GUI is disabled in this build, use --tui")
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return false
}
