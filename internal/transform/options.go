package transform

import "fmt"

// RewriteMode controls what happens to TypeScript file extensions in
// relative import specifiers.
type RewriteMode string

const (
	// RewriteOff leaves specifiers alone.
	RewriteOff RewriteMode = ""
	// RewriteExtensions maps .ts and .tsx to .js, .mts to .mjs and .cts to
	// .cjs.
	RewriteExtensions RewriteMode = "rewrite"
	// RemoveExtensions strips those extensions.
	RemoveExtensions RewriteMode = "remove"
)

// UnmarshalText implements encoding.TextUnmarshaler so the mode can be read
// from configuration files.
func (m *RewriteMode) UnmarshalText(text []byte) error {
	switch v := RewriteMode(text); v {
	case RewriteOff, RewriteExtensions, RemoveExtensions:
		*m = v
		return nil
	case "off", "none":
		*m = RewriteOff
		return nil
	default:
		return fmt.Errorf("transform: unknown import extension mode %q (want rewrite, remove or off)", text)
	}
}

// Options is the fixed transform configuration of a pipeline.
type Options struct {
	// OnlyRemoveTypeImports removes only imports marked with `type`. When
	// false, import bindings that are never used as values are removed as
	// well.
	OnlyRemoveTypeImports bool `toml:"only_remove_type_imports"`
	// AllowNamespaces lowers namespaces to functions. When false a
	// namespace is an error.
	AllowNamespaces bool `toml:"allow_namespaces"`
	// RemoveClassFieldsWithoutInitializer drops `x: T;` class fields.
	RemoveClassFieldsWithoutInitializer bool `toml:"remove_class_fields_without_initializer"`
	// RewriteImportExtensions rewrites relative import specifiers.
	RewriteImportExtensions RewriteMode `toml:"rewrite_import_extensions"`
}

// DefaultOptions returns the configuration used when none is given.
func DefaultOptions() Options {
	return Options{
		OnlyRemoveTypeImports:               true,
		AllowNamespaces:                     true,
		RemoveClassFieldsWithoutInitializer: true,
		RewriteImportExtensions:             RewriteExtensions,
	}
}
