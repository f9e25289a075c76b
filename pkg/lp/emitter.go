package lp

import (
	"errors"
	"fmt"
	"io"
)

const (
	// Hard limit on the length of an emitted line, newline excluded.
	// Lines never reach this length; they are flushed before.
	MaxLineLength = 561

	// Lines longer than this are wrapped after the current fragment.
	SoftLineLength = 100

	continuationIndent = "  "
)

var ErrFragmentTooLong = errors.New("fragment exceeds maximum line length")

// WriteError is returned when the sink rejects output.
type WriteError struct {
	Written int
	Size    int
	Err     error
}

func (e *WriteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("write failed after %d of %d bytes: %v", e.Written, e.Size, e.Err)
	}
	return fmt.Sprintf("short write: %d of %d bytes accepted", e.Written, e.Size)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Emitter accumulates fragments into lines of bounded length and pushes
// finished lines to a sink. The first error is sticky.
type Emitter struct {
	w    io.Writer
	line []byte
	err  error
}

func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{
		w:    w,
		line: make([]byte, 0, MaxLineLength+1),
	}
}

// Append adds a fragment to the current line, flushing first if the
// fragment would not fit.
func (e *Emitter) Append(fragment string) error {
	if e.err != nil {
		return e.err
	}

	if len(fragment) >= MaxLineLength {
		e.err = fmt.Errorf("%w: %d bytes", ErrFragmentTooLong, len(fragment))
		return e.err
	}

	if len(e.line)+len(fragment) >= MaxLineLength {
		if err := e.EndLine(); err != nil {
			return err
		}
	}

	e.line = append(e.line, fragment...)

	if len(e.line) > SoftLineLength {
		if err := e.EndLine(); err != nil {
			return err
		}
		e.line = append(e.line, continuationIndent...)
	}

	return nil
}

// EndLine writes the buffered text and a newline.
func (e *Emitter) EndLine() error {
	if e.err != nil {
		return e.err
	}

	e.line = append(e.line, '\n')
	n, err := e.w.Write(e.line)
	if err != nil || n < len(e.line) {
		e.err = &WriteError{Written: n, Size: len(e.line), Err: err}
	}
	e.line = e.line[:0]

	return e.err
}

// Len returns the number of bytes buffered in the current line.
func (e *Emitter) Len() int {
	return len(e.line)
}

func (e *Emitter) Err() error {
	return e.err
}
