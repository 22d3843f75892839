package bundler

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/packcfg/internal/buildconfig"
)

// aliasPlugin rewrites imports starting with an alias key onto the aliased
// directory below root, then lets esbuild resolve the result.
func aliasPlugin(alias map[string]string, root string) api.Plugin {
	keys := make([]string, 0, len(alias))
	for k := range alias {
		keys = append(keys, k)
	}
	// longest prefix first
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	return api.Plugin{
		Name: "alias",
		Setup: func(build api.PluginBuild) {
			for _, key := range keys {
				target := alias[key]
				if !filepath.IsAbs(target) {
					target = filepath.Join(root, target)
				}
				prefix := strings.TrimSuffix(key, "/")

				build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(prefix) + "(/|$)"},
					func(args api.OnResolveArgs) (api.OnResolveResult, error) {
						rest := strings.TrimPrefix(args.Path, prefix)
						result := build.Resolve(target+rest, api.ResolveOptions{
							Importer:   args.Importer,
							Kind:       args.Kind,
							ResolveDir: args.ResolveDir,
						})
						if len(result.Errors) > 0 {
							return api.OnResolveResult{Errors: result.Errors}, nil
						}
						return api.OnResolveResult{Path: result.Path, Namespace: result.Namespace}, nil
					})
			}
		},
	}
}

// urlThreshold is a url-loader rule translated for the threshold plugin.
type urlThreshold struct {
	filter string
	limit  int64
}

func urlThresholds(rules []buildconfig.ModuleRule) []urlThreshold {
	var out []urlThreshold
	for _, rule := range rules {
		tr := rule.Transform(buildconfig.LoaderURL)
		if tr == nil {
			continue
		}
		limit, ok := tr.IntOption("limit")
		if !ok {
			limit = buildconfig.InlineAssetLimit
		}
		out = append(out, urlThreshold{filter: rule.Test, limit: limit})
	}
	return out
}

// urlPlugin inlines files matched by a url-loader rule as data URLs when
// they are smaller than the rule's limit and emits them as files otherwise.
func urlPlugin(thresholds []urlThreshold) api.Plugin {
	return api.Plugin{
		Name: "url-threshold",
		Setup: func(build api.PluginBuild) {
			for _, th := range thresholds {
				build.OnLoad(api.OnLoadOptions{Filter: th.filter, Namespace: "file"},
					func(args api.OnLoadArgs) (api.OnLoadResult, error) {
						data, err := os.ReadFile(args.Path)
						if err != nil {
							return api.OnLoadResult{}, err
						}
						contents := string(data)
						return api.OnLoadResult{Contents: &contents, Loader: assetLoader(int64(len(data)), th.limit)}, nil
					})
			}
		},
	}
}

func assetLoader(size, limit int64) api.Loader {
	if size < limit {
		return api.LoaderDataURL
	}
	return api.LoaderFile
}
