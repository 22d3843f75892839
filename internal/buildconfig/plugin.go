package buildconfig

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// PluginKind identifies an external bundler plugin.
type PluginKind string

const (
	KindCSSExtract   PluginKind = "css-extract"
	KindHTMLGenerate PluginKind = "html-generate"
	KindCSSMinify    PluginKind = "css-minify"
	KindCleanOutput  PluginKind = "clean-output"
)

// Plugin is a plugin descriptor. The concrete types below carry the option
// shape of each known kind, Opaque carries anything else.
type Plugin interface {
	Kind() PluginKind
}

// Plugins is the ordered plugin list of a configuration.
type Plugins []Plugin

// CSSExtract writes the CSS of each chunk to its own file.
type CSSExtract struct {
	// Filename is the output template, e.g. "[name]_[contenthash:8].css".
	Filename string `mapstructure:"filename"`
}

// HTMLGenerate renders an HTML page referencing the emitted chunks.
type HTMLGenerate struct {
	Template string `mapstructure:"template"`
	// Filename defaults to index.html.
	Filename string `mapstructure:"filename"`
	// Chunks limits the page to the named chunks; empty means all.
	Chunks []string `mapstructure:"chunks"`
}

// CSSMinify minifies emitted CSS assets whose name matches AssetNameRegExp.
type CSSMinify struct {
	AssetNameRegExp string `mapstructure:"assetNameRegExp"`
	Processor       string `mapstructure:"cssProcessor"`
}

// CleanOutput removes stale artifacts from the output directory before a
// build emits new ones. Paths matching a Keep glob survive.
type CleanOutput struct {
	Keep []string `mapstructure:"keep"`
}

// Opaque passes an unrecognised plugin through untouched.
type Opaque struct {
	Name    string         `mapstructure:"name"`
	Options map[string]any `mapstructure:"options"`
}

func (CSSExtract) Kind() PluginKind   { return KindCSSExtract }
func (HTMLGenerate) Kind() PluginKind { return KindHTMLGenerate }
func (CSSMinify) Kind() PluginKind    { return KindCSSMinify }
func (CleanOutput) Kind() PluginKind  { return KindCleanOutput }
func (o Opaque) Kind() PluginKind     { return PluginKind(o.Name) }

// HTMLFilename returns the page name, defaulting to index.html.
func (h HTMLGenerate) HTMLFilename() string {
	if h.Filename == "" {
		return "index.html"
	}
	return h.Filename
}

// Descriptor is the serialised form of a plugin.
type Descriptor struct {
	Kind    string         `mapstructure:"kind" yaml:"kind" json:"kind"`
	Options map[string]any `mapstructure:"options" yaml:"options,omitempty" json:"options,omitempty"`
}

// Describe converts a plugin into its descriptor.
func Describe(p Plugin) (Descriptor, error) {
	if o, ok := p.(Opaque); ok {
		return Descriptor{Kind: o.Name, Options: o.Options}, nil
	}

	opts := map[string]any{}
	if err := mapstructure.Decode(p, &opts); err != nil {
		return Descriptor{}, fmt.Errorf("describe plugin %s: %w", p.Kind(), err)
	}

	return Descriptor{Kind: string(p.Kind()), Options: opts}, nil
}

// DecodePlugin converts a descriptor into a typed plugin. Unknown kinds are
// returned as Opaque; unknown options of a known kind are an error.
func DecodePlugin(d Descriptor) (Plugin, error) {
	if d.Kind == "" {
		return nil, fmt.Errorf("%w: plugin descriptor without kind", ErrInvalidConfig)
	}

	switch PluginKind(d.Kind) {
	case KindCSSExtract:
		return decodeOptions[CSSExtract](d)
	case KindHTMLGenerate:
		return decodeOptions[HTMLGenerate](d)
	case KindCSSMinify:
		return decodeOptions[CSSMinify](d)
	case KindCleanOutput:
		return decodeOptions[CleanOutput](d)
	default:
		return Opaque{Name: d.Kind, Options: d.Options}, nil
	}
}

func decodeOptions[T Plugin](d Descriptor) (Plugin, error) {
	var p T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &p,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(d.Options); err != nil {
		return nil, fmt.Errorf("%w: plugin %s: %v", ErrInvalidConfig, d.Kind, err)
	}
	return p, nil
}

// Find returns the first plugin of the given kind.
func (ps Plugins) Find(kind PluginKind) (Plugin, bool) {
	for _, p := range ps {
		if p.Kind() == kind {
			return p, true
		}
	}
	return nil, false
}

// Index returns the position of the first plugin of the given kind or -1.
func (ps Plugins) Index(kind PluginKind) int {
	for i, p := range ps {
		if p.Kind() == kind {
			return i
		}
	}
	return -1
}

// Kinds lists the plugin kinds in order.
func (ps Plugins) Kinds() []PluginKind {
	kinds := make([]PluginKind, len(ps))
	for i, p := range ps {
		kinds[i] = p.Kind()
	}
	return kinds
}
