//go:build !nogui

package gui

import (
	"context"
	"net/url"

	"marky/internal/errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
)

type pickResult struct {
	path string
	err  error
}

// filePicker shows fyne's file dialogs over the main window and blocks the
// calling task until the user answers.
type filePicker struct {
	window fyne.Window
}

func (p *filePicker) PickOpen(ctx context.Context) (string, error) {
	ch := make(chan pickResult, 1)
	d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			ch <- pickResult{err: err}
			return
		}
		path := r.URI().Path()
		r.Close()
		ch <- pickResult{path: path}
	}, p.window)
	d.Show()
	return waitPick(ctx, ch, d)
}

func (p *filePicker) PickSave(ctx context.Context, suggested string) (string, error) {
	ch := make(chan pickResult, 1)
	d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil || w == nil {
			ch <- pickResult{err: err}
			return
		}
		path := w.URI().Path()
		w.Close()
		ch <- pickResult{path: path}
	}, p.window)
	if suggested != "" {
		d.SetFileName(suggested)
	}
	d.Show()
	return waitPick(ctx, ch, d)
}

func waitPick(ctx context.Context, ch <-chan pickResult, d dialog.Dialog) (string, error) {
	select {
	case res := <-ch:
		if res.err != nil {
			return "", errors.NewFileError("file dialog failed", "", errors.InvalidPath, res.err)
		}
		if res.path == "" {
			return "", errors.ErrDialogCancelled
		}
		return res.path, nil
	case <-ctx.Done():
		d.Hide()
		return "", errors.ErrDialogCancelled
	}
}

// urlOpener hands links to the desktop's default handler.
type urlOpener struct {
	app fyne.App
}

func (o *urlOpener) Open(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid link %q", raw)
	}
	return o.app.OpenURL(u)
}
