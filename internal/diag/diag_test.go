package diag

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Message: "Unexpected token", Line: 3, Column: 7}
	assert.Equal(t, "3:7: error: Unexpected token", d.String())

	d.Severity = SevWarning
	assert.Equal(t, "3:7: warning: Unexpected token", d.String())
}

func TestListHasErrors(t *testing.T) {
	assert.False(t, List(nil).HasErrors())
	assert.False(t, List{{Severity: SevWarning}}.HasErrors())
	assert.True(t, List{{Severity: SevWarning}, {Severity: SevError}}.HasErrors())
}

func TestListString(t *testing.T) {
	l := List{
		{Message: "a", Line: 1, Column: 1},
		{Message: "b", Line: 2, Column: 5},
	}
	assert.Equal(t, "1:1: error: a\n2:5: error: b", l.String())
}

func TestRender(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	Render(&buf, "main.ts", List{{
		Message: "Unexpected token \"=\"",
		Line:    1,
		Column:  7,
		Snippet: "const = ;",
	}})

	want := "main.ts:1:7: error: Unexpected token \"=\"\n" +
		"  const = ;\n" +
		"        ^\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderKeepsTabs(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	Render(&buf, "a.ts", List{{Message: "m", Line: 2, Column: 3, Snippet: "\t\tx"}})
	assert.Contains(t, buf.String(), "  \t\t^\n")
}
