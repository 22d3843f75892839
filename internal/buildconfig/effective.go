package buildconfig

import (
	"fmt"
	"regexp"

	"github.com/go-viper/mapstructure/v2"
)

// Effective is the resolved configuration handed to the bundler.
type Effective struct {
	Mode        string             `mapstructure:"mode"`
	Entry       map[string]string  `mapstructure:"entry"`
	Output      Output             `mapstructure:"output"`
	ModuleRules []ModuleRule       `mapstructure:"moduleRules"`
	Resolve     ResolveOptions     `mapstructure:"resolveOptions"`
	Plugins     Plugins            `mapstructure:"pluginList"`
	Environment EnvironmentOptions `mapstructure:"environmentOptions"`
}

type Output struct {
	Path     string `mapstructure:"path"`
	Filename string `mapstructure:"filename"`
}

type ResolveOptions struct {
	Extensions []string          `mapstructure:"extensions"`
	Alias      map[string]string `mapstructure:"alias"`
}

type EnvironmentOptions struct {
	DevServer *DevServer `mapstructure:"devServer"`
}

// DevServer configures the local development server.
type DevServer struct {
	ContentBase    string   `mapstructure:"contentBase"`
	Port           int      `mapstructure:"port"`
	Host           string   `mapstructure:"host"`
	Open           bool     `mapstructure:"open"`
	Hot            bool     `mapstructure:"hot"`
	Compress       bool     `mapstructure:"compress"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// Address returns host:port.
func (d DevServer) Address() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// Resolve builds the effective configuration for env. Extra overlays, such
// as project local files, are merged after the environment overlay.
func Resolve(env string, extra ...Config) (*Effective, error) {
	merged, err := Merged(env, extra...)
	if err != nil {
		return nil, err
	}

	return Decode(merged)
}

// Merged returns the merged configuration tree for env without decoding it.
func Merged(env string, extra ...Config) (Config, error) {
	overlay, err := Overlay(env)
	if err != nil {
		return nil, err
	}

	return MergeAll(Base(), append([]Config{overlay}, extra...)...)
}

// Decode converts a merged tree into an Effective configuration and
// validates it. Keys outside the schema are rejected.
func Decode(cfg Config) (*Effective, error) {
	eff := &Effective{}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      eff,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}

	if err := dec.Decode(map[string]any(cfg.Clone())); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := eff.Validate(); err != nil {
		return nil, err
	}

	return eff, nil
}

// EntryPoint returns the single entry chunk and its path.
func (e *Effective) EntryPoint() (name, path string) {
	for name, path = range e.Entry {
		return name, path
	}
	return "", ""
}

// Validate checks the invariants the bundler relies on.
func (e *Effective) Validate() error {
	switch e.Mode {
	case ModeDevelopment, ModeProduction, ModeNone:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, e.Mode)
	}

	if len(e.Entry) != 1 {
		return fmt.Errorf("%w: expected a single entry point, got %d", ErrInvalidConfig, len(e.Entry))
	}
	if _, path := e.EntryPoint(); path == "" {
		return fmt.Errorf("%w: entry point path is empty", ErrInvalidConfig)
	}

	if e.Output.Path == "" || e.Output.Filename == "" {
		return fmt.Errorf("%w: output path and filename are required", ErrInvalidConfig)
	}

	extract := e.Plugins.Index(KindCSSExtract)
	for _, rule := range e.ModuleRules {
		if err := rule.Validate(); err != nil {
			return err
		}
		if rule.Uses(LoaderCSSExtract) && extract < 0 {
			return fmt.Errorf("%w: rule %q extracts CSS but no %s plugin is registered",
				ErrInvalidConfig, rule.Test, KindCSSExtract)
		}
	}

	for _, p := range e.Plugins {
		if err := validatePlugin(p); err != nil {
			return err
		}
	}

	if minify := e.Plugins.Index(KindCSSMinify); minify >= 0 && extract > minify {
		return fmt.Errorf("%w: %s must be registered before %s", ErrInvalidConfig, KindCSSExtract, KindCSSMinify)
	}

	return nil
}

func validatePlugin(p Plugin) error {
	switch t := p.(type) {
	case nil:
		return fmt.Errorf("%w: nil plugin", ErrInvalidConfig)
	case CSSExtract:
		if t.Filename == "" {
			return fmt.Errorf("%w: %s needs a filename", ErrInvalidConfig, t.Kind())
		}
	case HTMLGenerate:
		if t.Template == "" {
			return fmt.Errorf("%w: %s needs a template", ErrInvalidConfig, t.Kind())
		}
	case CSSMinify:
		if _, err := regexp.Compile(t.AssetNameRegExp); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, t.Kind(), err)
		}
	case Opaque:
		if t.Name == "" {
			return fmt.Errorf("%w: opaque plugin without name", ErrInvalidConfig)
		}
	}
	return nil
}
