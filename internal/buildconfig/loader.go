package buildconfig

import (
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// LoadOverlay reads a partial configuration from a YAML file.
func LoadOverlay(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overlay: %w", err)
	}

	cfg, err := ParseOverlay(data)
	if err != nil {
		return nil, fmt.Errorf("overlay %s: %w", path, err)
	}

	return cfg, nil
}

// ParseOverlay parses a YAML partial configuration. moduleRules and
// pluginList are decoded into their typed forms so the result merges with
// the in-memory producers.
func ParseOverlay(data []byte) (Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := normalize(raw)

	if v, ok := cfg[KeyModuleRules]; ok {
		var rules []ModuleRule
		if err := decodeStrict(v, &rules); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, KeyModuleRules, err)
		}
		cfg[KeyModuleRules] = rules
	}

	if v, ok := cfg[KeyPlugins]; ok {
		var descriptors []Descriptor
		if err := decodeStrict(v, &descriptors); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, KeyPlugins, err)
		}

		plugins := make(Plugins, 0, len(descriptors))
		for _, d := range descriptors {
			p, err := DecodePlugin(d)
			if err != nil {
				return nil, err
			}
			plugins = append(plugins, p)
		}
		cfg[KeyPlugins] = plugins
	}

	return cfg, nil
}

// Export converts a configuration tree into plain maps and slices, with
// plugins in descriptor form, for printing or hashing.
func Export(cfg Config) (map[string]any, error) {
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		ev, err := exportValue(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = ev
	}
	return out, nil
}

func exportValue(v any) (any, error) {
	switch t := v.(type) {
	case Config:
		return Export(t)
	case map[string]any:
		return Export(Config(t))
	case Plugins:
		list := make([]any, 0, len(t))
		for _, p := range t {
			d, err := Describe(p)
			if err != nil {
				return nil, err
			}
			list = append(list, map[string]any{"kind": d.Kind, "options": d.Options})
		}
		return list, nil
	case []ModuleRule:
		list := make([]any, 0, len(t))
		for _, r := range t {
			use := make([]any, 0, len(r.Use))
			for _, tr := range r.Use {
				entry := map[string]any{"loader": tr.Loader}
				if len(tr.Options) > 0 {
					entry["options"] = tr.Options
				}
				use = append(use, entry)
			}
			list = append(list, map[string]any{"test": r.Test, "use": use})
		}
		return list, nil
	default:
		return v, nil
	}
}

func normalize(m map[string]any) Config {
	cfg := make(Config, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			cfg[k] = normalize(nested)
			continue
		}
		cfg[k] = v
	}
	return cfg
}

func decodeStrict(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
