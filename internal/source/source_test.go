package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Type
	}{
		{"app.js", Type{Language: JavaScript, ModuleKind: Module, Variant: JSX}},
		{"app.mjs", Type{Language: JavaScript, ModuleKind: Module, Variant: JSX}},
		{"app.cjs", Type{Language: JavaScript, ModuleKind: Script, Variant: JSX}},
		{"app.jsx", Type{Language: JavaScript, ModuleKind: Module, Variant: JSX}},
		{"app.ts", Type{Language: TypeScript, ModuleKind: Module, Variant: Plain}},
		{"app.mts", Type{Language: TypeScript, ModuleKind: Module, Variant: Plain}},
		{"app.cts", Type{Language: TypeScript, ModuleKind: Script, Variant: Plain}},
		{"app.tsx", Type{Language: TypeScript, ModuleKind: Module, Variant: JSX}},
		{"types.d.ts", Type{Language: TypeScript, ModuleKind: Module, Variant: Plain, Declaration: true}},
		{"types.d.cts", Type{Language: TypeScript, ModuleKind: Script, Variant: Plain, Declaration: true}},
		{"path/to/App.TSX", Type{Language: TypeScript, ModuleKind: Module, Variant: JSX}}, // case insensitive
		{"dir.d/file.ts", Type{Language: TypeScript, ModuleKind: Module, Variant: Plain}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, err := Classify(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"notes.txt", "Makefile", "archive.tar.gz", "script.ts.bak", ""} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()
			_, err := Classify(path)
			require.Error(t, err)

			var ue *UnknownExtensionError
			require.True(t, errors.As(err, &ue))
			assert.Equal(t, path, ue.Path)
		})
	}
}

func TestClassifyDoesNotTouchFilesystem(t *testing.T) {
	t.Parallel()
	// Neither path exists; classification only looks at the string.
	_, err := Classify("/definitely/missing/file.ts")
	assert.NoError(t, err)
	_, err = Classify("/definitely/missing/file.rs")
	assert.Error(t, err)
}

func TestTypeString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "typescript module", Type{Language: TypeScript}.String())
	assert.Equal(t, "typescript module jsx", Type{Language: TypeScript, Variant: JSX}.String())
	assert.Equal(t, "javascript script jsx", Type{ModuleKind: Script, Variant: JSX}.String())
	assert.Equal(t, "typescript module declaration", Type{Language: TypeScript, Declaration: true}.String())
}

func TestTypePredicates(t *testing.T) {
	t.Parallel()
	st, err := Classify("x.cts")
	require.NoError(t, err)
	assert.True(t, st.IsTypeScript())
	assert.False(t, st.IsModule())
	assert.False(t, st.IsJSX())
}
