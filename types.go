package oxcc

import (
	"github.com/maxleiko/oxcc/internal/codegen"
	"github.com/maxleiko/oxcc/internal/diag"
	"github.com/maxleiko/oxcc/internal/source"
	"github.com/maxleiko/oxcc/internal/transform"
)

// Public aliases for the internal types that appear in the Transpiler API.
// They are identical to the internal types, so no conversion is needed.

type SourceType = source.Type
type Diagnostic = diag.Diagnostic
type Diagnostics = diag.List
type TransformOptions = transform.Options
type CodegenOptions = codegen.Options
type RewriteMode = transform.RewriteMode

const (
	RewriteOff        = transform.RewriteOff
	RewriteExtensions = transform.RewriteExtensions
	RemoveExtensions  = transform.RemoveExtensions
)

// Classify returns the source type implied by the extension of path without
// touching the filesystem.
func Classify(path string) (SourceType, error) {
	return source.Classify(path)
}
