// Package pipe provides anonymous unidirectional byte channels suitable for
// redirecting a child process's standard streams, plus the small set of
// operations a process supervisor needs on top of them: duplicating an open
// file at the OS level and probing how many bytes are buffered without
// consuming them.
//
// Endpoints returned by Open are not inheritable by child processes; handing
// one to a specific child requires an explicit duplication, which the
// subprocess package performs during spawn.
package pipe

import (
	"errors"
	"fmt"
	"os"
)

// Mode selects the stream translation mode for SetMode.
type Mode int

const (
	// Binary passes bytes through untranslated.
	Binary Mode = iota
	// Text requests platform newline translation where the OS has a notion
	// of text streams.
	Text
)

// ErrClosed reports an operation on a stream whose descriptor is no longer
// open.
var ErrClosed = errors.New("pipe: stream is closed")

// Pipe holds the two endpoints of an anonymous pipe. Each endpoint is
// independently closable; closing W signals EOF to readers of R once
// buffered bytes drain.
type Pipe struct {
	R *os.File
	W *os.File
}

// Open creates a connected read/write endpoint pair. Both endpoints are
// created non-inheritable.
func Open() (*Pipe, error) {
	p, err := open()
	if err != nil {
		return nil, fmt.Errorf("pipe: open: %w", err)
	}
	return p, nil
}

// Close releases both endpoints. Endpoints already closed individually are
// skipped.
func (p *Pipe) Close() error {
	var first error
	if p.R != nil {
		if err := p.R.Close(); err != nil && first == nil {
			first = err
		}
		p.R = nil
	}
	if p.W != nil {
		if err := p.W.Close(); err != nil && first == nil {
			first = err
		}
		p.W = nil
	}
	return first
}

// Dup returns an OS-level duplicate of f's underlying descriptor wrapped in
// a new *os.File. The duplicate and the original are independently closable
// and share no Go-level state; the original's position and ownership are
// untouched. The duplicate is not inheritable.
func Dup(f *os.File) (*os.File, error) {
	if f == nil {
		return nil, ErrClosed
	}
	d, err := dup(f)
	if err != nil {
		return nil, fmt.Errorf("pipe: dup %s: %w", f.Name(), err)
	}
	return d, nil
}

// Peek reports the number of bytes currently buffered in the read side of a
// pipe without consuming them. A broken pipe with nothing left to read
// reports 0, not an error. Streams that are closed or not readable pipes
// produce an error.
func Peek(f *os.File) (int, error) {
	if f == nil {
		return 0, ErrClosed
	}
	n, err := peek(f)
	if err != nil {
		return 0, fmt.Errorf("pipe: peek %s: %w", f.Name(), err)
	}
	return n, nil
}

// SetMode switches a stream between binary and text translation on
// platforms that distinguish the two. Go's file I/O never performs newline
// translation, so every stream already behaves as a binary stream and the
// call only validates that f is usable; it exists so redirection code can
// state its expectation explicitly.
func SetMode(f *os.File, m Mode) error {
	if f == nil {
		return ErrClosed
	}
	if _, err := f.Stat(); err != nil {
		return fmt.Errorf("pipe: setmode %s: %w", f.Name(), err)
	}
	_ = m
	return nil
}
