package buildconfig

import (
	"fmt"
	"slices"
)

// Merge deep-merges overlay onto base and returns a new Config.
//
// Nested Configs merge recursively and pluginList sequences concatenate with
// base entries first. Any other overlay value replaces the base value. Keys
// only in base are kept, keys only in overlay are added. Neither input is
// modified and the result shares no memory with them.
func Merge(base, overlay Config) (Config, error) {
	out := base.Clone()
	if out == nil {
		out = Config{}
	}

	if err := mergeInto(nil, out, overlay); err != nil {
		return nil, err
	}

	return out, nil
}

// MergeAll merges overlays onto base from left to right.
func MergeAll(base Config, overlays ...Config) (Config, error) {
	out := base.Clone()
	if out == nil {
		out = Config{}
	}

	for _, overlay := range overlays {
		if err := mergeInto(nil, out, overlay); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// mergeInto applies overlay to dst in place. dst must be private to the
// caller.
func mergeInto(path []string, dst, overlay Config) error {
	for _, key := range sortedKeys(overlay) {
		ov := overlay[key]
		keyPath := append(slices.Clip(path), key)

		bv, exists := dst[key]
		if !exists {
			dst[key] = cloneValue(ov)
			continue
		}

		if len(path) == 0 && key == KeyPlugins {
			merged, err := concatPlugins(keyPath, bv, ov)
			if err != nil {
				return err
			}
			dst[key] = merged
			continue
		}

		bc, baseNested := asConfig(bv)
		oc, overlayNested := asConfig(ov)
		switch {
		case baseNested && overlayNested:
			if err := mergeInto(keyPath, bc, oc); err != nil {
				return err
			}
		case baseNested != overlayNested:
			return &MalformedSchemaError{Path: keyPath, Base: kindOf(bv), Overlay: kindOf(ov)}
		default:
			dst[key] = cloneValue(ov)
		}
	}

	return nil
}

func concatPlugins(path []string, base, overlay any) (Plugins, error) {
	bp, ok := base.(Plugins)
	if !ok {
		return nil, &MalformedSchemaError{Path: path, Base: kindOf(base), Overlay: kindOf(overlay)}
	}
	op, ok := overlay.(Plugins)
	if !ok {
		return nil, &MalformedSchemaError{Path: path, Base: kindOf(base), Overlay: kindOf(overlay)}
	}

	// base is already a private copy
	merged := make(Plugins, 0, len(bp)+len(op))
	merged = append(merged, bp...)
	merged = append(merged, cloneValue(op).(Plugins)...)
	return merged, nil
}

func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	return Config{"v": v}.Clone()["v"]
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case Config, map[string]any:
		return "a nested config"
	case Plugins:
		return "a plugin list"
	default:
		return fmt.Sprintf("a %T value", v)
	}
}

func sortedKeys(c Config) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
