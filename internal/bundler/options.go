package bundler

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/packcfg/internal/buildconfig"
)

// probeExtensions are matched against each rule's test pattern to decide
// which esbuild loader handles a file type.
var probeExtensions = []string{
	".ts", ".tsx", ".js", ".jsx", ".mjs",
	".css", ".less",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp",
	".woff", ".woff2", ".eot", ".ttf", ".otf",
}

var hashToken = regexp.MustCompile(`\[(?:content|chunk)?hash(?::\d+)?\]`)

// NameTemplate translates a webpack style output name into an esbuild path
// template. Hash tokens collapse to [hash] and the extension is dropped
// since esbuild appends it.
func NameTemplate(name string) string {
	name = hashToken.ReplaceAllString(name, "[hash]")
	name = strings.TrimSuffix(name, ".[ext]")
	if ext := filepath.Ext(name); ext != "" && !strings.Contains(ext, "]") {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// Options translates an effective configuration into esbuild build options
// for the project at root, which must be absolute. Transforms without an
// esbuild counterpart are reported as warnings.
func Options(eff *buildconfig.Effective, root string) (api.BuildOptions, []string) {
	name, entry := eff.EntryPoint()

	opts := api.BuildOptions{
		EntryPointsAdvanced: []api.EntryPoint{{InputPath: filepath.ToSlash(filepath.Clean(entry)), OutputPath: name}},
		AbsWorkingDir:       root,
		Outdir:              outputDir(eff, root),
		EntryNames:          NameTemplate(eff.Output.Filename),
		AssetNames:          "[name]-[hash]",
		Bundle:              true,
		Write:               false,
		Metafile:            true,
		Format:              api.FormatIIFE,
		Platform:            api.PlatformBrowser,
		ResolveExtensions:   eff.Resolve.Extensions,
		Loader:              map[string]api.Loader{},
		LogLevel:            api.LogLevelSilent,
		Define: map[string]string{
			"process.env.NODE_ENV": fmt.Sprintf("%q", nodeEnv(eff.Mode)),
		},
	}

	switch eff.Mode {
	case buildconfig.ModeProduction:
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	case buildconfig.ModeDevelopment:
		opts.Sourcemap = api.SourceMapInline
	}

	var warnings []string
	for _, rule := range eff.ModuleRules {
		for _, tr := range rule.Use {
			if tr.Loader == buildconfig.LoaderURL || tr.Loader == buildconfig.LoaderFile {
				if n, ok := tr.StringOption("name"); ok && n != "" {
					opts.AssetNames = NameTemplate(n)
				}
			}
			if w := unsupported(rule, tr); w != "" {
				warnings = append(warnings, w)
			}
		}

		for _, ext := range probeExtensions {
			ok, err := rule.Matches("file" + ext)
			if err != nil || !ok {
				continue
			}
			if loader, ok := ruleLoader(rule, ext); ok {
				opts.Loader[ext] = loader
			}
		}
	}

	return opts, warnings
}

func ruleLoader(rule buildconfig.ModuleRule, ext string) (api.Loader, bool) {
	switch {
	case rule.Uses(buildconfig.LoaderTS):
		if ext == ".tsx" {
			return api.LoaderTSX, true
		}
		return api.LoaderTS, true
	case rule.Uses(buildconfig.LoaderBabel):
		return api.LoaderJSX, true
	case rule.Uses(buildconfig.LoaderCSS):
		if rule.Transform(buildconfig.LoaderCSS).BoolOption("modules") {
			return api.LoaderLocalCSS, true
		}
		return api.LoaderCSS, true
	case rule.Uses(buildconfig.LoaderURL), rule.Uses(buildconfig.LoaderFile):
		// the url threshold plugin picks data urls for small files
		return api.LoaderFile, true
	}
	return api.LoaderNone, false
}

func unsupported(rule buildconfig.ModuleRule, tr buildconfig.Transform) string {
	switch tr.Loader {
	case buildconfig.LoaderTS, buildconfig.LoaderBabel, buildconfig.LoaderCSS,
		buildconfig.LoaderCSSExtract, buildconfig.LoaderURL, buildconfig.LoaderFile:
		return ""
	}
	return fmt.Sprintf("rule %q: transform %s has no bundler counterpart and is skipped", rule.Test, tr.Loader)
}

func outputDir(eff *buildconfig.Effective, root string) string {
	if filepath.IsAbs(eff.Output.Path) {
		return filepath.Clean(eff.Output.Path)
	}
	return filepath.Join(root, eff.Output.Path)
}

func nodeEnv(mode string) string {
	if mode == buildconfig.ModeNone {
		return buildconfig.ModeDevelopment
	}
	return mode
}
