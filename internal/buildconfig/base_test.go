package buildconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBase_shape(t *testing.T) {
	base := Base()

	require.Equal(t, Config{EntryChunk: "src/index.tsx"}, base[KeyEntry])
	require.Equal(t, Config{KeyOutputPath: "dist", KeyOutputFilename: "[name].js"}, base[KeyOutput])
	require.NotContains(t, base, KeyMode)

	ext, _ := base.Lookup(KeyResolve, KeyExtensions)
	require.Equal(t, []string{".js", ".jsx", ".ts", ".tsx"}, ext)

	alias, _ := base.Lookup(KeyResolve, KeyAlias)
	require.Equal(t, Config{"@": "src"}, alias)

	require.Equal(t, Plugins{
		CSSExtract{Filename: "[name]_[contenthash:8].css"},
		HTMLGenerate{Template: "config/index.html", Chunks: []string{"app"}},
	}, base[KeyPlugins])
}

func TestBase_rulesCoverSources(t *testing.T) {
	rules := Base()[KeyModuleRules].([]ModuleRule)

	tests := []struct {
		file    string
		loaders []string
	}{
		{"src/index.tsx", []string{LoaderTS}},
		{"src/util.ts", []string{LoaderTS}},
		{"src/legacy.js", []string{LoaderBabel, LoaderESLint}},
		{"src/view.jsx", []string{LoaderBabel, LoaderESLint}},
		{"src/app.css", []string{LoaderCSSExtract, LoaderCSS}},
		{"src/theme.less", []string{LoaderCSSExtract, LoaderCSS, LoaderPostCSS, LoaderLess}},
		{"src/logo.png", []string{LoaderURL}},
		{"src/photo.jpeg", []string{LoaderURL}},
		{"src/fonts/body.woff2", []string{LoaderFile}},
		{"src/fonts/title.otf", []string{LoaderFile}},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			var matched []ModuleRule
			for _, r := range rules {
				ok, err := r.Matches(tt.file)
				require.NoError(t, err)
				if ok {
					matched = append(matched, r)
				}
			}
			require.Len(t, matched, 1)
			require.Equal(t, tt.loaders, loaders(matched[0].Use))
		})
	}
}

func TestBase_stylesheetExecutionOrder(t *testing.T) {
	less := Base()[KeyModuleRules].([]ModuleRule)[3]

	require.Equal(t,
		[]string{LoaderLess, LoaderPostCSS, LoaderCSS, LoaderCSSExtract},
		loaders(less.ExecutionOrder()))
	// declared order is left alone
	require.Equal(t,
		[]string{LoaderCSSExtract, LoaderCSS, LoaderPostCSS, LoaderLess},
		loaders(less.Use))

	require.True(t, less.Transform(LoaderCSS).BoolOption("modules"))
}

func TestBase_assetThreshold(t *testing.T) {
	rules := Base()[KeyModuleRules].([]ModuleRule)

	images := rules[4].Transform(LoaderURL)
	require.NotNil(t, images)
	limit, ok := images.IntOption("limit")
	require.True(t, ok)
	require.EqualValues(t, InlineAssetLimit, limit)
	name, ok := images.StringOption("name")
	require.True(t, ok)
	require.Equal(t, "[name]_[hash:8].[ext]", name)

	fonts := rules[5].Transform(LoaderFile)
	require.NotNil(t, fonts)
	_, ok = fonts.IntOption("limit")
	require.False(t, ok)
}

func TestBase_rulesValid(t *testing.T) {
	for _, r := range Base()[KeyModuleRules].([]ModuleRule) {
		require.NoError(t, r.Validate(), r.Test)
	}
}

func TestModuleRule_validate(t *testing.T) {
	require.ErrorIs(t, Rule(`\.ts$`).Validate(), ErrInvalidConfig)
	require.ErrorIs(t, Rule("", Use(LoaderTS)).Validate(), ErrInvalidConfig)
	require.ErrorIs(t, Rule(`\.(ts$`, Use(LoaderTS)).Validate(), ErrInvalidConfig)
	require.ErrorIs(t, Rule(`\.ts$`, Transform{}).Validate(), ErrInvalidConfig)

	_, err := Rule(`\.(ts$`, Use(LoaderTS)).Matches("a.ts")
	require.Error(t, err)
}

func TestBase_freshValues(t *testing.T) {
	a := Base()
	a[KeyModuleRules].([]ModuleRule)[2].Use[1].Options["modules"] = false
	a[KeyPlugins].(Plugins)[1] = Opaque{Name: "x"}

	b := Base()
	require.True(t, b[KeyModuleRules].([]ModuleRule)[2].Use[1].BoolOption("modules"))
	require.True(t, b[KeyModuleRules].([]ModuleRule)[3].Use[1].BoolOption("modules"))
	require.Equal(t, KindHTMLGenerate, b[KeyPlugins].(Plugins)[1].Kind())
}
