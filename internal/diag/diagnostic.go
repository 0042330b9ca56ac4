// Package diag defines the structured problem reports produced by the
// parse, semantic and transform stages.
package diag

import (
	"fmt"
	"strings"
)

// Severity of a diagnostic.
type Severity uint8

const (
	SevError Severity = iota
	SevWarning
)

func (s Severity) String() string {
	switch s {
	case SevWarning:
		return "warning"
	default:
		return "error"
	}
}

// Span is a half-open byte range in the source text.
type Span struct {
	Start uint32
	End   uint32
}

// Diagnostic is one problem report. Line and Column are 1-based; Column
// counts bytes. Snippet holds a copy of the offending source line so a
// diagnostic stays printable after the source buffer is recycled.
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     Span
	Line     int
	Column   int
	Snippet  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Severity, d.Message)
}

// List is an ordered sequence of diagnostics.
type List []Diagnostic

// HasErrors reports whether any diagnostic has error severity.
func (l List) HasErrors() bool {
	for i := range l {
		if l[i].Severity == SevError {
			return true
		}
	}
	return false
}

func (l List) String() string {
	var b strings.Builder
	for i, d := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(d.String())
	}
	return b.String()
}
