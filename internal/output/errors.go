package output

import (
	"errors"
	"fmt"
	"io"
	"syscall"
)

// ErrIO marks failures to create, write or flush an output file.
var ErrIO = errors.New("output i/o")

// IOError records which write failed and where.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is.
func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

func ioErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// IsBrokenPipe reports whether an error is a broken pipe / closed pipe, as
// when a downstream consumer (like `head`) closes early.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}
