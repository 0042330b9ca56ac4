// Package ffi implements the C boundary of liboxcc in plain Go: opaque
// handles, result codes and the diagnostic side channel. The cgo exports in
// cmd/liboxcc are thin wrappers around it.
package ffi

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/maxleiko/oxcc"
)

// Code is the result of a boundary call.
type Code int32

const (
	OK Code = iota
	Invalid
	IO
	Parse
	Semantic
	Transformer
)

var codeNames = [...]string{"OXCC_OK", "OXCC_INVALID", "OXCC_IO", "OXCC_PARSE", "OXCC_SEMANTIC", "OXCC_TRANSFORMER"}

func (c Code) String() string {
	if c >= 0 && int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "OXCC_UNKNOWN"
}

// CodeOf maps a transpilation error to its result code.
func CodeOf(err error) Code {
	switch oxcc.KindOf(err) {
	case oxcc.KindNone:
		return OK
	case oxcc.KindInvalidArguments:
		return Invalid
	case oxcc.KindParse:
		return Parse
	case oxcc.KindSemantic:
		return Semantic
	case oxcc.KindTransform:
		return Transformer
	default:
		return IO
	}
}

// Handle identifies a transpiler across the boundary. The zero Handle is
// never issued.
type Handle uintptr

var (
	logMu  sync.RWMutex
	logger = newStderrLogger()
)

func newStderrLogger() *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), zap.ErrorLevel)
	return zap.New(core)
}

// SetLogger replaces the diagnostic side channel. A nil logger discards
// diagnostics.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logMu.Lock()
	logger = l
	logMu.Unlock()
}

func currentLogger() *zap.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}

// errNulInOutput is reported when the generated code cannot be handed out as
// a C string.
var errNulInOutput = errors.New("output contains a NUL byte")

// report writes one entry per diagnostic of err to the side channel.
func report(path string, err error) {
	l := currentLogger()
	var e *oxcc.Error
	if !errors.As(err, &e) || len(e.Diagnostics) == 0 {
		l.Error("transpile failed", zap.String("path", path), zap.Error(err))
		return
	}
	for _, d := range e.Diagnostics {
		l.Error(d.Message,
			zap.String("path", path),
			zap.Int("line", d.Line),
			zap.Int("column", d.Column),
			zap.Stringer("stage", e.Kind),
		)
	}
}

// run transpiles path with t and checks the result can cross the boundary.
func run(t *oxcc.Transpiler, path []byte) (string, Code) {
	if !utf8.Valid(path) {
		p := string(path)
		report(p, &oxcc.Error{Kind: oxcc.KindIO, Path: p, Err: oxcc.ErrInvalidUTF8})
		return "", IO
	}
	p := string(path)
	out, err := t.Transpile(context.Background(), p)
	if err != nil {
		report(p, err)
		return "", CodeOf(err)
	}
	if strings.IndexByte(out.Code, 0) >= 0 {
		report(p, &oxcc.Error{Kind: oxcc.KindIO, Path: p, Err: errNulInOutput})
		return "", IO
	}
	return out.Code, OK
}

// TranspileOnce transpiles path with a short-lived transpiler using the
// default configuration.
func TranspileOnce(path []byte, opts ...oxcc.Option) (string, Code) {
	t := oxcc.New(opts...)
	defer t.Close()
	return run(t, path)
}
