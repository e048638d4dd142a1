// Package mesisim simulates a 4-core MESI cache-coherent machine: a
// snoopy bus, one direct-mapped cache per core, single-bank main memory,
// and a 5-stage in-order pipeline per core, driven cycle by cycle from
// files on disk.
package mesisim

import (
	"errors"
	"fmt"
)

// Code categorizes a failure into one of this simulator's error classes.
type Code string

const (
	CodeFileOpen      Code = "file open failed"
	CodeMalformedWord Code = "malformed input word"
	CodeBusProtocol   Code = "bus protocol violation"
)

// Error is a structured mesisim error with context and an unwrap chain.
type Error struct {
	Op    string
	Path  string
	Code  Code
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	switch {
	case e.Path != "" && e.Op != "":
		return fmt.Sprintf("mesisim: %s (op=%s, path=%s)", msg, e.Op, e.Path)
	case e.Op != "":
		return fmt.Sprintf("mesisim: %s (op=%s)", msg, e.Op)
	default:
		return fmt.Sprintf("mesisim: %s", msg)
	}
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewFileError wraps a file-open failure as a CodeFileOpen error.
func NewFileError(op, path string, inner error) *Error {
	return &Error{Op: op, Path: path, Code: CodeFileOpen, Msg: inner.Error(), Inner: inner}
}

// NewWordError wraps a malformed input-word failure as a CodeMalformedWord
// error.
func NewWordError(op, path string, inner error) *Error {
	return &Error{Op: op, Path: path, Code: CodeMalformedWord, Msg: inner.Error(), Inner: inner}
}

// NewProtocolError reports an internal bus-protocol invariant violation.
// Callers treat these as bugs, not recoverable runtime conditions.
func NewProtocolError(op, msg string) *Error {
	return &Error{Op: op, Code: CodeBusProtocol, Msg: msg}
}

// IsCode reports whether err (or any error it wraps) is a *Error with the
// given code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
