package oxcc

import (
	"errors"
	"fmt"

	"github.com/maxleiko/oxcc/internal/diag"
)

// Kind classifies why a call failed.
type Kind uint8

const (
	// KindNone is the kind of a nil error.
	KindNone Kind = iota
	// KindInvalidArguments is a malformed call. Only the C boundary
	// produces it.
	KindInvalidArguments
	// KindIO covers unreadable files, paths that are not valid text and
	// unrecognised extensions.
	KindIO
	// KindParse is a syntax error.
	KindParse
	// KindSemantic is a scope or declaration error.
	KindSemantic
	// KindTransform is a construct the configured rewrites cannot express.
	KindTransform
)

var kindNames = [...]string{"none", "invalid arguments", "io", "parse", "semantic", "transform"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Error is the error returned by a failed transpilation. Diagnostics is set
// for Parse, Semantic and Transform failures; Err for I/O failures.
type Error struct {
	Kind        Kind
	Path        string
	Diagnostics diag.List
	Err         error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("oxcc: %s: %s: %v", e.Kind, e.Path, e.Err)
	case len(e.Diagnostics) == 1:
		return fmt.Sprintf("oxcc: %s: %s:%s", e.Kind, e.Path, e.Diagnostics[0])
	default:
		return fmt.Sprintf("oxcc: %s: %s: %d diagnostics, first %s", e.Kind, e.Path, len(e.Diagnostics), e.Diagnostics[0])
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err. Errors that are not an *Error map to
// KindIO, nil to KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIO
}

// DiagnosticsOf returns the diagnostics carried by err, if any.
func DiagnosticsOf(err error) diag.List {
	var e *Error
	if errors.As(err, &e) {
		return e.Diagnostics
	}
	return nil
}
