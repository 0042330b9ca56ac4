package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	locColor     = color.New(color.Bold)
	caretColor   = color.New(color.FgGreen, color.Bold)
)

// Render writes l in a compiler-style layout:
//
//	path:line:col: error: message
//	  const = ;
//	        ^
//
// Colours follow color.NoColor.
func Render(w io.Writer, path string, l List) {
	for _, d := range l {
		sev := errorColor
		if d.Severity == SevWarning {
			sev = warningColor
		}
		fmt.Fprintf(w, "%s %s %s\n",
			locColor.Sprintf("%s:%d:%d:", path, d.Line, d.Column),
			sev.Sprintf("%s:", d.Severity),
			d.Message,
		)
		if d.Snippet == "" {
			continue
		}
		fmt.Fprintf(w, "  %s\n", d.Snippet)
		fmt.Fprintf(w, "  %s%s\n", caretPad(d.Snippet, d.Column), caretColor.Sprint("^"))
	}
}

// caretPad reproduces the snippet's tabs so the caret lines up in terminals.
func caretPad(snippet string, col int) string {
	n := min(max(col-1, 0), len(snippet))
	var b strings.Builder
	for i := 0; i < n; i++ {
		if snippet[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
