// Package errors provides standardized error handling for marky.
// It defines the error kinds the editor distinguishes, the error types that
// carry them, and helpers for creating, wrapping and classifying errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package errors that we re-export for convenience
var (
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrDialogCancelled is returned by pickers when the user dismisses the
// dialog. Errors of the same kind match it with Is.
var ErrDialogCancelled = NewFileError("dialog cancelled", "", DialogCancelled, nil)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	DialogCancelled
	ReadFailed
	WriteFailed
	NotText
	FileTooLarge
	InvalidPath
	// Config error kinds
	InvalidConfig
	ConfigUnreadable
)

var kindNames = map[ErrorKind]string{
	Unknown:          "unknown",
	FileNotFound:     "file_not_found",
	DialogCancelled:  "dialog_cancelled",
	ReadFailed:       "read_failed",
	WriteFailed:      "write_failed",
	NotText:          "not_text",
	FileTooLarge:     "file_too_large",
	InvalidPath:      "invalid_path",
	InvalidConfig:    "invalid_config",
	ConfigUnreadable: "config_unreadable",
}

// String returns a stable, log-friendly name for the kind.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors related to file dialogs and disk I/O
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Is matches file errors by kind, so a wrapped cancellation still
// satisfies errors.Is(err, ErrDialogCancelled).
func (e *FileError) Is(target error) bool {
	var t *FileError
	if !errors.As(target, &t) {
		return false
	}
	return t.path == "" && t.err == nil && t.kind == e.kind
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// KindOf returns the kind of the first classified error in err's chain,
// or Unknown.
func KindOf(err error) ErrorKind {
	for err != nil {
		switch e := err.(type) {
		case *FileError:
			if e.kind != Unknown {
				return e.kind
			}
		case *ConfigError:
			if e.kind != Unknown {
				return e.kind
			}
		case *ApplicationError:
			if e.kind != Unknown {
				return e.kind
			}
		}
		err = errors.Unwrap(err)
	}
	return Unknown
}

// IsCancelled checks if the error is a dialog that was dismissed without a
// selection. Cancellation is a normal outcome, not a failure.
func IsCancelled(err error) bool {
	return KindOf(err) == DialogCancelled
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	return KindOf(err) == FileNotFound
}

// IsReadFailure checks if the error happened while loading a file
func IsReadFailure(err error) bool {
	switch KindOf(err) {
	case ReadFailed, NotText, FileTooLarge, FileNotFound:
		return true
	}
	return false
}

// IsWriteFailure checks if the error happened while saving a file
func IsWriteFailure(err error) bool {
	return KindOf(err) == WriteFailed
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}
