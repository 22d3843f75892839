package bundler

import (
	"path/filepath"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/packcfg/internal/buildconfig"
)

func TestNameTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"plain script", "[name].js", "[name]"},
		{"hashed script", "[name]_[hash:8].js", "[name]_[hash]"},
		{"content hash", "[name]_[contenthash:8].css", "[name]_[hash]"},
		{"chunk hash", "js/[name].[chunkhash].js", "js/[name].[hash]"},
		{"asset with ext token", "[name]_[hash:8].[ext]", "[name]_[hash]"},
		{"no extension", "[name]", "[name]"},
		{"hash as last segment", "[name].[hash]", "[name].[hash]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, NameTemplate(tt.template))
		})
	}
}

func TestOptions_production(t *testing.T) {
	eff, err := buildconfig.Resolve(buildconfig.EnvProduction)
	require.NoError(t, err)

	root := t.TempDir()
	opts, warnings := Options(eff, root)

	require.Equal(t, []api.EntryPoint{{InputPath: "src/index.tsx", OutputPath: "app"}}, opts.EntryPointsAdvanced)
	require.Equal(t, root, opts.AbsWorkingDir)
	require.Equal(t, filepath.Join(root, "dist"), opts.Outdir)
	require.Equal(t, "[name]_[hash]", opts.EntryNames)
	require.Equal(t, "[name]_[hash]", opts.AssetNames)
	require.False(t, opts.Write)
	require.True(t, opts.Metafile)
	require.True(t, opts.MinifyWhitespace)
	require.True(t, opts.MinifyIdentifiers)
	require.Equal(t, api.SourceMapNone, opts.Sourcemap)
	require.Equal(t, `"production"`, opts.Define["process.env.NODE_ENV"])
	require.Equal(t, []string{".js", ".jsx", ".ts", ".tsx"}, opts.ResolveExtensions)

	require.Equal(t, map[string]api.Loader{
		".ts":    api.LoaderTS,
		".tsx":   api.LoaderTSX,
		".js":    api.LoaderJSX,
		".jsx":   api.LoaderJSX,
		".css":   api.LoaderLocalCSS,
		".less":  api.LoaderLocalCSS,
		".png":   api.LoaderFile,
		".jpg":   api.LoaderFile,
		".jpeg":  api.LoaderFile,
		".gif":   api.LoaderFile,
		".woff":  api.LoaderFile,
		".woff2": api.LoaderFile,
		".eot":   api.LoaderFile,
		".ttf":   api.LoaderFile,
		".otf":   api.LoaderFile,
	}, opts.Loader)

	require.Len(t, warnings, 3)
	require.Contains(t, warnings[0], buildconfig.LoaderESLint)
	require.Contains(t, warnings[1], buildconfig.LoaderPostCSS)
	require.Contains(t, warnings[2], buildconfig.LoaderLess)
}

func TestOptions_development(t *testing.T) {
	eff, err := buildconfig.Resolve(buildconfig.EnvDevelopment)
	require.NoError(t, err)

	opts, _ := Options(eff, "/project")
	require.Equal(t, "[name]", opts.EntryNames)
	require.Equal(t, api.SourceMapInline, opts.Sourcemap)
	require.False(t, opts.MinifyWhitespace)
	require.Equal(t, `"development"`, opts.Define["process.env.NODE_ENV"])
}

func TestOptions_plainCSS(t *testing.T) {
	eff, err := buildconfig.Resolve(buildconfig.EnvProduction, buildconfig.Config{
		buildconfig.KeyOutput: buildconfig.Config{buildconfig.KeyOutputPath: "/srv/www"},
		buildconfig.KeyModuleRules: []buildconfig.ModuleRule{
			buildconfig.Rule(`\.tsx?$`, buildconfig.Use(buildconfig.LoaderTS)),
			buildconfig.Rule(`\.css$`, buildconfig.Use(buildconfig.LoaderCSS)),
		},
	})
	require.NoError(t, err)

	opts, warnings := Options(eff, "/project")
	require.Empty(t, warnings)
	require.Equal(t, "/srv/www", opts.Outdir)
	require.Equal(t, api.LoaderCSS, opts.Loader[".css"])
	require.NotContains(t, opts.Loader, ".png")
}
