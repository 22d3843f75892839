package buildconfig

const (
	// EntryChunk is the chunk name of the single entry point.
	EntryChunk = "app"

	// SourceRoot is the directory the "@" alias points at.
	SourceRoot = "src"

	// OutputDir receives every emitted artifact.
	OutputDir = "dist"

	// HTMLTemplate is the page template used by the HTML plugin.
	HTMLTemplate = "config/index.html"

	// InlineAssetLimit is the byte size below which images are inlined.
	InlineAssetLimit = 10240

	assetName = "[name]_[hash:8].[ext]"
)

// Base returns the environment agnostic configuration. Each call returns a
// fresh tree.
func Base() Config {
	return Config{
		KeyEntry: Config{
			EntryChunk: SourceRoot + "/index.tsx",
		},
		KeyOutput: Config{
			KeyOutputPath:     OutputDir,
			KeyOutputFilename: "[name].js",
		},
		KeyModuleRules: baseRules(),
		KeyResolve: Config{
			KeyExtensions: []string{".js", ".jsx", ".ts", ".tsx"},
			KeyAlias: Config{
				"@": SourceRoot,
			},
		},
		KeyPlugins: Plugins{
			CSSExtract{Filename: "[name]_[contenthash:8].css"},
			HTMLGenerate{Template: HTMLTemplate, Chunks: []string{EntryChunk}},
		},
	}
}

func baseRules() []ModuleRule {
	scopedCSS := func() Transform {
		return Transform{
			Loader:  LoaderCSS,
			Options: map[string]any{"modules": true},
		}
	}

	return []ModuleRule{
		Rule(`\.tsx?$`, Use(LoaderTS)),
		// linted before transpiling
		Rule(`\.(js|jsx)$`, Use(LoaderBabel), Use(LoaderESLint)),
		Rule(`\.css$`, Use(LoaderCSSExtract), scopedCSS()),
		Rule(`\.less$`,
			Use(LoaderCSSExtract),
			scopedCSS(),
			Transform{
				Loader: LoaderPostCSS,
				Options: map[string]any{
					"autoprefixer": map[string]any{
						"overrideBrowserslist": []string{"last 2 version", ">1%", "ios 7"},
					},
				},
			},
			Transform{
				Loader: LoaderLess,
				Options: map[string]any{
					"lessOptions": map[string]any{"javascriptEnabled": true},
				},
			},
		),
		Rule(`\.(png|jpg|gif|jpeg)$`, Transform{
			Loader: LoaderURL,
			Options: map[string]any{
				"limit": InlineAssetLimit,
				"name":  assetName,
			},
		}),
		Rule(`\.(woff|woff2|eot|ttf|otf)$`, Transform{
			Loader:  LoaderFile,
			Options: map[string]any{"name": assetName},
		}),
	}
}
