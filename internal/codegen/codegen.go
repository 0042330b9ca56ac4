// Package codegen prints a transformed syntax tree back to JavaScript text.
//
// The printer splices: it copies the original source between kept nodes and
// only materialises text for nodes the transform stage replaced or created.
// Comments and formatting of untouched code therefore survive unchanged.
package codegen

import (
	"go.uber.org/zap"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/maxleiko/oxcc/internal/syntax"
)

// Options controls the output form.
type Options struct {
	// Reprint passes the spliced output through esbuild's printer, which
	// normalises formatting.
	Reprint bool `toml:"reprint"`
	// Minify removes whitespace and applies syntax minification. It implies
	// Reprint.
	Minify bool `toml:"minify"`
}

// Generator turns trees into text. It keeps its output buffer between calls
// and is not safe for concurrent use.
type Generator struct {
	opts   Options
	logger *zap.Logger
	buf    []byte
}

// New creates a Generator. A nil logger discards log output.
func New(opts Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{opts: opts, logger: logger}
}

// Generate prints tree. The returned slice is owned by the Generator and is
// overwritten by the next call.
func (g *Generator) Generate(tree *syntax.Tree) []byte {
	g.buf = Print(tree, g.buf[:0])
	if !g.opts.Reprint && !g.opts.Minify {
		return g.buf
	}
	return g.reprint(tree, g.buf)
}

func (g *Generator) reprint(tree *syntax.Tree, code []byte) []byte {
	loader := api.LoaderJS
	if tree.SourceType().IsJSX() {
		loader = api.LoaderJSX
	}
	result := api.Transform(string(code), api.TransformOptions{
		Target:            api.ESNext,
		Format:            api.FormatDefault,
		Loader:            loader,
		JSX:               api.JSXPreserve,
		LegalComments:     api.LegalCommentsInline,
		MinifySyntax:      g.opts.Minify,
		MinifyWhitespace:  g.opts.Minify,
		MinifyIdentifiers: false,
	})
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		fields := []zap.Field{zap.String("error", msg.Text)}
		if msg.Location != nil {
			fields = append(fields, zap.Int("line", msg.Location.Line), zap.Int("column", msg.Location.Column))
		}
		g.logger.Warn("reprint failed, keeping spliced output", fields...)
		return code
	}
	return result.Code
}
