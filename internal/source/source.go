// Package source classifies input files by extension.
package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language is the source language of a file.
type Language uint8

const (
	JavaScript Language = iota
	TypeScript
)

func (l Language) String() string {
	if l == TypeScript {
		return "typescript"
	}
	return "javascript"
}

// ModuleKind distinguishes ES modules from classic scripts (CommonJS).
type ModuleKind uint8

const (
	Module ModuleKind = iota
	Script
)

func (k ModuleKind) String() string {
	if k == Script {
		return "script"
	}
	return "module"
}

// Variant says whether JSX syntax is enabled.
type Variant uint8

const (
	Plain Variant = iota
	JSX
)

func (v Variant) String() string {
	if v == JSX {
		return "jsx"
	}
	return "plain"
}

// Type is the classification of one input file. It is a value type; the
// zero value is a plain JavaScript module.
type Type struct {
	Language    Language
	ModuleKind  ModuleKind
	Variant     Variant
	Declaration bool // .d.ts, .d.mts, .d.cts
}

// IsTypeScript reports whether the file is TypeScript.
func (t Type) IsTypeScript() bool { return t.Language == TypeScript }

// IsModule reports whether the file is an ES module.
func (t Type) IsModule() bool { return t.ModuleKind == Module }

// IsJSX reports whether JSX syntax is enabled.
func (t Type) IsJSX() bool { return t.Variant == JSX }

func (t Type) String() string {
	s := t.Language.String() + " " + t.ModuleKind.String()
	if t.Variant == JSX {
		s += " jsx"
	}
	if t.Declaration {
		s += " declaration"
	}
	return s
}

// extToType maps file extensions to classifications.
var extToType = map[string]Type{
	".js":  {Language: JavaScript, ModuleKind: Module, Variant: JSX},
	".mjs": {Language: JavaScript, ModuleKind: Module, Variant: JSX},
	".jsx": {Language: JavaScript, ModuleKind: Module, Variant: JSX},
	".cjs": {Language: JavaScript, ModuleKind: Script, Variant: JSX},
	".ts":  {Language: TypeScript, ModuleKind: Module, Variant: Plain},
	".mts": {Language: TypeScript, ModuleKind: Module, Variant: Plain},
	".cts": {Language: TypeScript, ModuleKind: Script, Variant: Plain},
	".tsx": {Language: TypeScript, ModuleKind: Module, Variant: JSX},
}

// UnknownExtensionError is returned by Classify for paths whose extension is
// not a JavaScript or TypeScript one.
type UnknownExtensionError struct {
	Path string
	Ext  string
}

func (e *UnknownExtensionError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("source: %s has no file extension", e.Path)
	}
	return fmt.Sprintf("source: unknown file extension %q for %s", e.Ext, e.Path)
}

// Classify returns the source type for path based on its extension. It does
// not touch the filesystem.
func Classify(path string) (Type, error) {
	base := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(base))
	t, ok := extToType[ext]
	if !ok {
		return Type{}, &UnknownExtensionError{Path: path, Ext: filepath.Ext(base)}
	}
	if t.Language == TypeScript && strings.HasSuffix(strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base))), ".d") {
		t.Declaration = true
	}
	return t, nil
}
