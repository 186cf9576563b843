// Package xerrors adds lightweight call-site capture to errors: New and
// WithStack record a full stack, Wrap and Wrapf record the single
// wrapping PC. The log package renders both.
package xerrors

import (
	"errors"
	"fmt"
	"runtime"
)

func New(msg string) error             { return withStackSkip(errors.New(msg), 2) }
func Newf(f string, args ...any) error { return withStackSkip(fmt.Errorf(f, args...), 2) }

func WithStack(err error) error { return withStackSkip(err, 2) }

// EnsureTrace adds a stack only if err does not already carry one.
func EnsureTrace(err error) error {
	if err == nil {
		return nil
	}
	type hasStack interface{ StackPCs() []uintptr }
	var hs hasStack
	if errors.As(err, &hs) && hs != nil && len(hs.StackPCs()) > 0 {
		return err
	}
	return withStackSkip(err, 2)
}

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrapError{err: err, msg: msg, pc: callerPC(1)}
}

func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &wrapError{err: err, msg: fmt.Sprintf(format, args...), pc: callerPC(1)}
}

// stackError carries a full captured stack alongside the error.
type stackError struct {
	err error
	pcs []uintptr
}

func (s *stackError) Error() string       { return s.err.Error() }
func (s *stackError) Unwrap() error       { return s.err }
func (s *stackError) StackPCs() []uintptr { return s.pcs }
func (s *stackError) IsXerrorsWrapper()   {}

// wrapError carries a message prefix plus the single wrapping call site.
type wrapError struct {
	err error
	msg string
	pc  uintptr
}

func (w *wrapError) Error() string     { return w.msg + ": " + w.err.Error() }
func (w *wrapError) Unwrap() error     { return w.err }
func (w *wrapError) PC() uintptr       { return w.pc }
func (w *wrapError) IsXerrorsWrapper() {}

func withStackSkip(err error, skip int) error {
	if err == nil {
		return nil
	}
	return &stackError{err: err, pcs: captureStack(skip)}
}

func captureStack(skip int) []uintptr {
	const maxDepth = 64
	pcs := make([]uintptr, maxDepth)
	// 2 skips runtime.Callers + captureStack itself
	n := runtime.Callers(2+skip, pcs)
	return pcs[:n]
}

func callerPC(skip int) uintptr {
	var pcs [1]uintptr
	// 2 skips runtime.Callers + callerPC itself
	if n := runtime.Callers(2+skip, pcs[:]); n == 0 {
		return 0
	}
	return pcs[0]
}
