package assets

import (
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/adminpack/internal/bundler"
)

const emptyNamespace = "adminpack-empty"

// emptyModules registers the loader for modules resolved into the empty
// namespace.
func emptyModules(build api.PluginBuild) {
	build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: emptyNamespace},
		func(args api.OnLoadArgs) (api.OnLoadResult, error) {
			contents := ""
			return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
		})
}

// ignorePlugin resolves requests matching the resource pattern, issued from a
// directory matching the context pattern, to an empty module.
func ignorePlugin(descriptor bundler.Plugin) api.Plugin {
	resource, _ := descriptor.Options["resourceRegExp"].(string)
	context, _ := descriptor.Options["contextRegExp"].(string)
	contextRe := regexp.MustCompile(context)

	return api.Plugin{
		Name: descriptor.Name,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: resource},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if !contextRe.MatchString(strings.TrimSuffix(args.ResolveDir, "/")) {
						return api.OnResolveResult{}, nil
					}
					return api.OnResolveResult{Path: args.Path, Namespace: emptyNamespace}, nil
				})
			emptyModules(build)
		},
	}
}

// nodePolyfillPlugin points node core module imports at their browser
// implementation, or an empty module when that is not installed.
func nodePolyfillPlugin(descriptor bundler.Plugin) api.Plugin {
	fallbacks, _ := descriptor.Options["fallbacks"].(map[string]string)

	return api.Plugin{
		Name: descriptor.Name,
		Setup: func(build api.PluginBuild) {
			if len(fallbacks) == 0 {
				return
			}

			build.OnResolve(api.OnResolveOptions{Filter: coreModuleFilter(fallbacks)},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					name := strings.TrimPrefix(args.Path, "node:")
					result := build.Resolve(fallbacks[name], api.ResolveOptions{
						Importer:   args.Importer,
						ResolveDir: args.ResolveDir,
						Kind:       args.Kind,
					})
					if len(result.Errors) > 0 {
						log.Debug().Str("module", name).Str("fallback", fallbacks[name]).Msg("No browser fallback installed, using empty module")
						return api.OnResolveResult{Path: name, Namespace: emptyNamespace}, nil
					}
					return api.OnResolveResult{Path: result.Path, Namespace: result.Namespace}, nil
				})
			emptyModules(build)
		},
	}
}

func coreModuleFilter(fallbacks map[string]string) string {
	names := make([]string, 0, len(fallbacks))
	for name := range fallbacks {
		names = append(names, regexp.QuoteMeta(name))
	}
	sort.Strings(names)
	return `^(node:)?(` + strings.Join(names, "|") + `)$`
}
