package ffi

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/maxleiko/oxcc"
)

func writeFile(t *testing.T, name, content string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return []byte(path)
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.ErrorLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(newStderrLogger()) })
	return logs
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		kind oxcc.Kind
		want Code
	}{
		{oxcc.KindInvalidArguments, Invalid},
		{oxcc.KindIO, IO},
		{oxcc.KindParse, Parse},
		{oxcc.KindSemantic, Semantic},
		{oxcc.KindTransform, Transformer},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CodeOf(&oxcc.Error{Kind: tt.kind}), tt.kind.String())
	}
	assert.Equal(t, OK, CodeOf(nil))
	assert.Equal(t, "OXCC_TRANSFORMER", Transformer.String())
	assert.Equal(t, "OXCC_UNKNOWN", Code(-1).String())
}

func TestRegistryTranspile(t *testing.T) {
	r := NewRegistry()
	h := r.New()
	require.NotZero(t, h)
	defer r.Free(h)

	code, rc := r.Transpile(h, writeFile(t, "a.ts", "let a: number = 1;\n"))
	require.Equal(t, OK, rc)
	assert.Equal(t, "let a = 1;\n", code)

	// the handle is reusable after a failure
	_, rc = r.Transpile(h, writeFile(t, "b.ts", "let = ;\n"))
	assert.Equal(t, Parse, rc)
	_, rc = r.Transpile(h, writeFile(t, "c.ts", "let c = 3;\n"))
	assert.Equal(t, OK, rc)
}

func TestRegistryResultCodes(t *testing.T) {
	observe(t)
	r := NewRegistry()
	h := r.New()
	defer r.Free(h)

	tests := []struct {
		name string
		path []byte
		want Code
	}{
		{"missing file", []byte(filepath.Join(t.TempDir(), "missing.ts")), IO},
		{"unknown extension", []byte("/nonexistent/file.txt"), IO},
		{"invalid utf8 path", []byte("bad\xff.ts"), IO},
		{"syntax error", writeFile(t, "p.ts", "const = ;\n"), Parse},
		{"redeclaration", writeFile(t, "s.ts", "let a;\nlet a;\n"), Semantic},
		{"export assignment", writeFile(t, "x.ts", "export = 1;\n"), Transformer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, rc := r.Transpile(h, tt.path)
			assert.Equal(t, tt.want, rc)
			assert.Empty(t, out)
		})
	}
}

func TestRegistryUnknownHandles(t *testing.T) {
	r := NewRegistry()
	path := writeFile(t, "a.ts", "let a = 1;\n")

	_, rc := r.Transpile(0, path)
	assert.Equal(t, Invalid, rc)
	_, rc = r.Transpile(42, path)
	assert.Equal(t, Invalid, rc)

	h := r.New()
	r.Free(h)
	r.Free(h)
	r.Free(0)
	assert.Zero(t, r.Len())

	_, rc = r.Transpile(h, path)
	assert.Equal(t, Invalid, rc)
}

func TestRegistryHandlesAreDistinct(t *testing.T) {
	r := NewRegistry()
	a, b := r.New(), r.New()
	defer r.Free(a)
	defer r.Free(b)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryRejectsConcurrentCallOnSameHandle(t *testing.T) {
	r := NewRegistry()
	h := r.New()
	defer r.Free(h)

	e, ok := r.acquire(h)
	require.True(t, ok)
	_, rc := r.Transpile(h, writeFile(t, "a.ts", "let a = 1;\n"))
	assert.Equal(t, Invalid, rc)
	r.release(e)

	_, rc = r.Transpile(h, writeFile(t, "b.ts", "let b = 1;\n"))
	assert.Equal(t, OK, rc)
}

func TestRegistryFreeDuringCall(t *testing.T) {
	r := NewRegistry()
	h := r.New()

	e, ok := r.acquire(h)
	require.True(t, ok)
	r.Free(h)
	assert.Zero(t, r.Len())
	assert.True(t, e.closed)
	r.release(e)
}

func TestRegistryConcurrentHandles(t *testing.T) {
	r := NewRegistry()
	path := writeFile(t, "a.ts", "export const v: string = \"x\";\n")

	var wg sync.WaitGroup
	codes := make([]Code, 8)
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := r.New()
			defer r.Free(h)
			_, codes[i] = r.Transpile(h, path)
		}()
	}
	wg.Wait()
	for _, rc := range codes {
		assert.Equal(t, OK, rc)
	}
}

func TestTranspileOnce(t *testing.T) {
	code, rc := TranspileOnce(writeFile(t, "a.mts", "export enum E { A = 1 }\n"))
	require.Equal(t, OK, rc)
	assert.Contains(t, code, "E[E[\"A\"] = 1] = \"A\";")
}

func TestDiagnosticsReachSideChannel(t *testing.T) {
	logs := observe(t)
	path := writeFile(t, "dup.ts", "let a = 1;\nlet a = 2;\n")

	_, rc := TranspileOnce(path)
	require.Equal(t, Semantic, rc)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Identifier 'a' has already been declared", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, string(path), fields["path"])
	assert.Equal(t, int64(2), fields["line"])
	assert.Equal(t, "semantic", fields["stage"])
}

func TestIOErrorsReachSideChannel(t *testing.T) {
	logs := observe(t)
	_, rc := TranspileOnce([]byte("/nonexistent/a.ts"))
	require.Equal(t, IO, rc)
	require.Equal(t, 1, logs.FilterMessage("transpile failed").Len())
}
