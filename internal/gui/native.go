//go:build !nogui

package gui

import (
	"context"
	"path/filepath"

	"marky/internal/errors"

	"github.com/sqweek/dialog"
)

// NativePicker uses the operating system's file dialogs.
type NativePicker struct {
	// StartDir is where dialogs open; empty leaves it to the system.
	StartDir string
}

func (p NativePicker) builder(title string) *dialog.FileBuilder {
	b := dialog.File().
		Title(title).
		Filter("Markdown files", "md", "markdown", "mdown").
		Filter("Text files", "txt").
		Filter("All files", "*")
	if p.StartDir != "" {
		b = b.SetStartDir(p.StartDir)
	}
	return b
}

// PickOpen shows the system open dialog. The dialog is modal and does not
// observe ctx.
func (p NativePicker) PickOpen(ctx context.Context) (string, error) {
	return nativeResult(p.builder("Open").Load())
}

// PickSave shows the system save dialog, prefilled with suggested.
func (p NativePicker) PickSave(ctx context.Context, suggested string) (string, error) {
	b := p.builder("Save As")
	if suggested != "" {
		b = b.SetStartFile(filepath.Base(suggested))
	}
	return nativeResult(b.Save())
}

func nativeResult(path string, err error) (string, error) {
	if errors.Is(err, dialog.ErrCancelled) || (err == nil && path == "") {
		return "", errors.ErrDialogCancelled
	}
	if err != nil {
		return "", errors.NewFileError("file dialog failed", "", errors.InvalidPath, err)
	}
	return filepath.Clean(path), nil
}
