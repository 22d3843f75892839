// Package buildconfig builds, layers and resolves bundler configuration.
//
// A Config is a tree of string keys. Base returns the environment agnostic
// tree, Overlay returns the partial tree for a named environment, and Merge
// combines the two into a new tree which Decode turns into an Effective
// configuration for the bundler.
package buildconfig

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

// Top level configuration keys.
const (
	KeyMode        = "mode"
	KeyEntry       = "entry"
	KeyOutput      = "output"
	KeyModuleRules = "moduleRules"
	KeyResolve     = "resolveOptions"
	KeyPlugins     = "pluginList"
	KeyEnvironment = "environmentOptions"
)

// Nested keys.
const (
	KeyOutputPath     = "path"
	KeyOutputFilename = "filename"
	KeyExtensions     = "extensions"
	KeyAlias          = "alias"
	KeyDevServer      = "devServer"
)

// Build modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
	ModeNone        = "none"
)

// Config is a configuration tree. Values are scalars, ordered sequences or
// nested Configs.
type Config map[string]any

// Clone returns a deep copy of c. The copy shares nothing with c.
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}

	v, err := copystructure.Copy(c)
	if err != nil {
		// every value placed in a Config is plain data
		panic(fmt.Sprintf("buildconfig: copy config: %v", err))
	}

	return v.(Config)
}

// Lookup walks nested Configs along path and returns the value found there.
func (c Config) Lookup(path ...string) (any, bool) {
	var cur any = c
	for _, key := range path {
		node, ok := asConfig(cur)
		if !ok {
			return nil, false
		}
		cur, ok = node[key]
		if !ok {
			return nil, false
		}
	}

	return cur, true
}

// asConfig reports whether v is a nested Config. Plain maps, as produced by
// YAML decoding, count as nested Configs.
func asConfig(v any) (Config, bool) {
	switch t := v.(type) {
	case Config:
		return t, true
	case map[string]any:
		return Config(t), true
	default:
		return nil, false
	}
}
