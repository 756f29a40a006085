// Package fileio is the editor's file collaborator: it asks the user where
// to read or write through a Picker and does the disk work. Every method
// blocks and is meant to run inside a task goroutine.
package fileio

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"marky/internal/errors"
	"marky/internal/log"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// Picker asks the user for a path. A dismissed dialog returns an error
// matching errors.ErrDialogCancelled.
type Picker interface {
	PickOpen(ctx context.Context) (string, error)
	PickSave(ctx context.Context, suggested string) (string, error)
}

// DefaultFileMode is used for files that did not exist before.
const DefaultFileMode fs.FileMode = 0o644

// Service reads and writes documents.
type Service struct {
	picker  Picker
	maxSize int64
}

// Option configures a Service.
type Option func(*Service)

// WithMaxSize rejects reads of files larger than n bytes. Zero disables the
// check.
func WithMaxSize(n int64) Option {
	return func(s *Service) { s.maxSize = n }
}

// NewService creates a Service that asks picker for paths.
func NewService(picker Picker, opts ...Option) *Service {
	s := &Service{picker: picker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PickAndRead asks for a file to open and reads it.
func (s *Service) PickAndRead(ctx context.Context) (string, string, error) {
	path, err := s.picker.PickOpen(ctx)
	if err != nil {
		return "", "", err
	}
	if path == "" {
		return "", "", errors.ErrDialogCancelled
	}
	path, err = normalize(path)
	if err != nil {
		return "", "", err
	}
	content, err := s.Read(ctx, path)
	if err != nil {
		return "", "", err
	}
	return path, content, nil
}

// Read returns the content of path. Binary files, text that is not UTF-8
// and files over the size limit are refused.
func (s *Service) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.NewFileError("read aborted", path, errors.ReadFailed, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewFileError("file not found", path, errors.FileNotFound, err)
		}
		return "", errors.NewFileError("cannot stat file", path, errors.ReadFailed, err)
	}
	if info.IsDir() {
		return "", errors.NewFileError("is a directory", path, errors.InvalidPath, nil)
	}
	if s.maxSize > 0 && info.Size() > s.maxSize {
		return "", errors.NewFileError(
			"file is "+humanize.IBytes(uint64(info.Size()))+", limit "+humanize.IBytes(uint64(s.maxSize)),
			path, errors.FileTooLarge, nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewFileError("failed to read file", path, errors.ReadFailed, err)
	}
	if !IsText(data) {
		return "", errors.NewFileError("not a text file", path, errors.NotText, nil)
	}
	// the buffer holds runes; anything else would be rewritten on save
	if !utf8.Valid(data) {
		return "", errors.NewFileError("not valid UTF-8", path, errors.NotText, nil)
	}

	log.LogWithFields(log.F("path", path), log.F("size", len(data))).Debug("Read file")
	return string(data), nil
}

// Write stores content at path, asking for a location first when path is
// empty. It returns the path written.
func (s *Service) Write(ctx context.Context, path, suggested, content string) (string, error) {
	if path == "" {
		picked, err := s.picker.PickSave(ctx, suggested)
		if err != nil {
			return "", err
		}
		if picked == "" {
			return "", errors.ErrDialogCancelled
		}
		if path, err = normalize(picked); err != nil {
			return "", err
		}
	}
	if err := ctx.Err(); err != nil {
		return "", errors.NewFileError("write aborted", path, errors.WriteFailed, err)
	}
	if err := WriteAtomic(path, []byte(content)); err != nil {
		return "", err
	}
	log.LogWithFields(log.F("path", path), log.F("size", len(content))).Debug("Wrote file")
	return path, nil
}

// WriteAtomic writes data to a temporary file beside path and renames it
// into place, keeping the mode of any file it replaces.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	mode := DefaultFileMode
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return errors.NewFileError("is a directory", path, errors.InvalidPath, nil)
		}
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.NewFileError("failed to create temporary file", path, errors.WriteFailed, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return errors.NewFileError("failed to write file", path, errors.WriteFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return errors.NewFileError("failed to sync file", path, errors.WriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.NewFileError("failed to close file", path, errors.WriteFailed, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return errors.NewFileError("failed to set file mode", path, errors.WriteFailed, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.NewFileError("failed to replace file", path, errors.WriteFailed, err)
	}
	return nil
}

// IsText reports whether data looks like text. Empty input counts.
func IsText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}

// normalize expands a leading ~ and makes path absolute.
func normalize(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.NewFileError("cannot expand home directory", path, errors.InvalidPath, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.NewFileError("invalid path", path, errors.InvalidPath, err)
	}
	return abs, nil
}
