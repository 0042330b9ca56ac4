package oxcc

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/maxleiko/oxcc/internal/transform"
)

// Config is the fixed configuration of a Transpiler. It is read once when
// the Transpiler is created.
//
// In TOML:
//
//	[transform]
//	only_remove_type_imports = true
//	allow_namespaces = true
//	remove_class_fields_without_initializer = true
//	rewrite_import_extensions = "rewrite"
//
//	[codegen]
//	reprint = false
//	minify = false
type Config struct {
	Transform TransformOptions `toml:"transform"`
	Codegen   CodegenOptions   `toml:"codegen"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{Transform: transform.DefaultOptions()}
}

// LoadConfig reads a TOML configuration file. Keys missing from the file
// keep their defaults; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("oxcc: %s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("oxcc: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// normalize applies the implications between options.
func (c Config) normalize() Config {
	if c.Codegen.Minify {
		c.Codegen.Reprint = true
	}
	return c
}
