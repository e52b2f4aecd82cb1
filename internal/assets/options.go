package assets

import (
	"path/filepath"
	"regexp"
	"sort"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/adminpack/internal/bundler"
)

// knownExtensions are the file types the resource and asset rules can claim.
var knownExtensions = []string{
	".svg", ".eot", ".otf", ".ttf", ".woff", ".woff2",
	".bmp", ".gif", ".jpg", ".jpeg", ".png", ".ico",
	".mp4", ".webm",
}

// BuildOptions maps a bundle configuration onto esbuild. Plugins are not
// included, see Pipeline.plugins.
func BuildOptions(cfg bundler.Config, workDir string) api.BuildOptions {
	minify := cfg.Optimization.Minimize

	opts := api.BuildOptions{
		EntryPointsAdvanced: []api.EntryPoint{{
			InputPath:  EntryPoint,
			OutputPath: entryName,
		}},
		AbsWorkingDir:     workDir,
		Bundle:            true,
		Splitting:         true,
		Write:             true,
		Metafile:          true,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2015,
		JSX:               api.JSXAutomatic,
		Outdir:            cfg.Output.Path,
		PublicPath:        cfg.Output.PublicPath,
		EntryNames:        cfg.Output.Filename,
		ChunkNames:        cfg.Output.ChunkFilename,
		AssetNames:        cfg.Output.AssetFilename,
		MinifyWhitespace:  minify,
		MinifyIdentifiers: minify,
		MinifySyntax:      minify,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         sourceMap(cfg.Devtool),
		Alias:             cfg.Resolve.Alias,
		PreserveSymlinks:  !cfg.Resolve.Symlinks,
		ResolveExtensions: cfg.Resolve.Extensions,
		MainFields:        cfg.Resolve.MainFields,
		NodePaths:         nodePaths(cfg.Resolve.Modules),
		Define:            defines(cfg),
		Loader:            loaders(cfg),
		LogLevel:          api.LogLevelSilent,
	}

	if !filepath.IsAbs(opts.Outdir) {
		opts.Outdir = filepath.Join(workDir, opts.Outdir)
	}

	return opts
}

func sourceMap(devtool string) api.SourceMap {
	switch devtool {
	case bundler.DevtoolInline:
		return api.SourceMapInline
	case bundler.DevtoolLinked:
		return api.SourceMapLinked
	default:
		return api.SourceMapNone
	}
}

// nodePaths keeps the absolute module directories; esbuild walks
// node_modules hierarchies on its own.
func nodePaths(modules []string) []string {
	var paths []string
	for _, dir := range modules {
		if filepath.IsAbs(dir) {
			paths = append(paths, dir)
		}
	}
	return paths
}

func defines(cfg bundler.Config) map[string]string {
	out := map[string]string{}

	if plugin, ok := cfg.Plugin(bundler.PluginDefine); ok {
		if defs, ok := plugin.Options["definitions"].(map[string]string); ok {
			for key, value := range defs {
				out[key] = value
			}
		}
	}

	if _, ok := cfg.Plugin(bundler.PluginNodePolyfill); ok {
		out["global"] = "globalThis"
		out["process.browser"] = "true"
	}

	return out
}

// loaders assigns the file loader to every extension claimed by a resource
// or asset rule. Inlining below the size limit is decided per file by the
// asset plugin.
func loaders(cfg bundler.Config) map[string]api.Loader {
	out := map[string]api.Loader{}
	for _, rule := range cfg.Module.Rules {
		if rule.Type != bundler.RuleTypeResource && rule.Type != bundler.RuleTypeAsset {
			continue
		}
		for _, ext := range extensionsFor(rule) {
			out[ext] = api.LoaderFile
		}
	}
	return out
}

func extensionsFor(rule bundler.Rule) []string {
	re, err := regexp.Compile(rule.Test)
	if err != nil {
		return nil
	}
	var exts []string
	for _, ext := range knownExtensions {
		if re.MatchString("file" + ext) {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}
