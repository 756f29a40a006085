package fileio

import (
	"context"

	"marky/internal/errors"
)

// PromptKind says what a PromptRequest is for.
type PromptKind int

const (
	PromptOpen PromptKind = iota
	PromptSave
)

// PromptRequest is one question for the user. Exactly one of Answer or
// Cancel must be called.
type PromptRequest struct {
	Kind      PromptKind
	Title     string
	Suggested string
	reply     chan string
}

// Answer replies with path. An empty path counts as cancel.
func (r *PromptRequest) Answer(path string) {
	r.reply <- path
}

// Cancel dismisses the prompt.
func (r *PromptRequest) Cancel() {
	r.reply <- ""
}

// PromptPicker asks for paths through whatever front end reads its
// requests, such as a text input line in the terminal UI.
type PromptPicker struct {
	requests chan *PromptRequest
}

// NewPromptPicker creates a PromptPicker with no pending requests.
func NewPromptPicker() *PromptPicker {
	return &PromptPicker{requests: make(chan *PromptRequest)}
}

// Requests delivers prompts to the front end, one at a time.
func (p *PromptPicker) Requests() <-chan *PromptRequest {
	return p.requests
}

// PickOpen asks for a file to open.
func (p *PromptPicker) PickOpen(ctx context.Context) (string, error) {
	return p.ask(ctx, &PromptRequest{Kind: PromptOpen, Title: "Open file"})
}

// PickSave asks where to save.
func (p *PromptPicker) PickSave(ctx context.Context, suggested string) (string, error) {
	return p.ask(ctx, &PromptRequest{Kind: PromptSave, Title: "Save as", Suggested: suggested})
}

func (p *PromptPicker) ask(ctx context.Context, req *PromptRequest) (string, error) {
	// buffered so a front end that answers after ctx ends never blocks
	req.reply = make(chan string, 1)

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return "", errors.ErrDialogCancelled
	}

	select {
	case path := <-req.reply:
		if path == "" {
			return "", errors.ErrDialogCancelled
		}
		return path, nil
	case <-ctx.Done():
		return "", errors.ErrDialogCancelled
	}
}
