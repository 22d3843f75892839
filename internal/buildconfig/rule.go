package buildconfig

import (
	"fmt"
	"regexp"
	"slices"
)

// Transform loader names understood by the bundler adapter.
const (
	LoaderTS         = "ts-loader"
	LoaderBabel      = "babel-loader"
	LoaderESLint     = "eslint-loader"
	LoaderCSSExtract = "mini-css-extract"
	LoaderCSS        = "css-loader"
	LoaderPostCSS    = "postcss-loader"
	LoaderLess       = "less-loader"
	LoaderURL        = "url-loader"
	LoaderFile       = "file-loader"
)

// ModuleRule governs how source files matching Test are processed.
//
// Use is applied right to left: the last transform runs first on the raw
// file and each output feeds the transform before it.
type ModuleRule struct {
	Test string      `mapstructure:"test"`
	Use  []Transform `mapstructure:"use"`
}

// Transform names an external transform and its options.
type Transform struct {
	Loader  string         `mapstructure:"loader"`
	Options map[string]any `mapstructure:"options"`
}

// Rule is shorthand for a ModuleRule built from loaders in declared order.
func Rule(test string, use ...Transform) ModuleRule {
	return ModuleRule{Test: test, Use: use}
}

// Use is shorthand for an option-less Transform.
func Use(loader string) Transform {
	return Transform{Loader: loader}
}

// Matches reports whether path is selected by the rule.
func (r ModuleRule) Matches(path string) (bool, error) {
	re, err := regexp.Compile(r.Test)
	if err != nil {
		return false, fmt.Errorf("rule %q: %w", r.Test, err)
	}

	return re.MatchString(path), nil
}

// ExecutionOrder returns the transforms in the order they run.
func (r ModuleRule) ExecutionOrder() []Transform {
	order := slices.Clone(r.Use)
	slices.Reverse(order)
	return order
}

// Uses reports whether loader appears in the transform chain.
func (r ModuleRule) Uses(loader string) bool {
	return r.Transform(loader) != nil
}

// Transform returns the first transform with the given loader, or nil.
func (r ModuleRule) Transform(loader string) *Transform {
	for i := range r.Use {
		if r.Use[i].Loader == loader {
			return &r.Use[i]
		}
	}
	return nil
}

// Validate checks the rule invariants.
func (r ModuleRule) Validate() error {
	if r.Test == "" {
		return fmt.Errorf("%w: module rule without test pattern", ErrInvalidConfig)
	}
	if _, err := regexp.Compile(r.Test); err != nil {
		return fmt.Errorf("%w: module rule %q: %v", ErrInvalidConfig, r.Test, err)
	}
	if len(r.Use) == 0 {
		return fmt.Errorf("%w: module rule %q has an empty transform chain", ErrInvalidConfig, r.Test)
	}
	for _, t := range r.Use {
		if t.Loader == "" {
			return fmt.Errorf("%w: module rule %q has a transform without loader", ErrInvalidConfig, r.Test)
		}
	}
	return nil
}

// Option returns the named option of the transform.
func (t Transform) Option(name string) (any, bool) {
	v, ok := t.Options[name]
	return v, ok
}

// IntOption returns an integer option. YAML and JSON sources yield ints,
// int64s or float64s, all are accepted.
func (t Transform) IntOption(name string) (int64, bool) {
	switch v := t.Options[name].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		return int64(v), true //nolint:gosec
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// StringOption returns a string option.
func (t Transform) StringOption(name string) (string, bool) {
	v, ok := t.Options[name].(string)
	return v, ok
}

// BoolOption returns a boolean option.
func (t Transform) BoolOption(name string) bool {
	v, _ := t.Options[name].(bool)
	return v
}
