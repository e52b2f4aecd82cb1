package bundler

import "maps"

// Plugin names.
const (
	PluginHTML          = "html"
	PluginDefine        = "define"
	PluginNodePolyfill  = "node-polyfill"
	PluginTypecheck     = "typecheck"
	PluginIgnoreLocales = "ignore-moment-locales"
	PluginExtractCSS    = "extract-css"
	PluginProgress      = "progress"
)

// pluginSpec adds a plugin when its predicate holds.
type pluginSpec struct {
	when  func(in input) bool
	build func(f *Factory, in input) Plugin
}

// pluginSpecs is evaluated in order; the plugin list keeps this order.
var pluginSpecs = []pluginSpec{
	{when: always, build: htmlPlugin},
	{when: always, build: definePlugin},
	{when: always, build: nodePolyfillPlugin},
	{when: useTypeScript, build: typecheckPlugin},
	{when: production, build: ignoreLocalesPlugin},
	{when: production, build: extractCSSPlugin},
	{when: production, build: progressPlugin},
}

func (f *Factory) plugins(in input) []Plugin {
	var plugins []Plugin
	for _, spec := range pluginSpecs {
		if spec.when(in) {
			plugins = append(plugins, spec.build(f, in))
		}
	}
	return plugins
}

func always(input) bool           { return true }
func useTypeScript(in input) bool { return in.UseTypeScript }
func production(in input) bool    { return in.IsProduction() }

func htmlPlugin(f *Factory, in input) Plugin {
	return Plugin{
		Name: PluginHTML,
		Options: map[string]any{
			"inject":   true,
			"template": f.templateFile(in.Options),
		},
	}
}

func definePlugin(f *Factory, in input) Plugin {
	env := in.Env
	if env == "" {
		env = EnvDevelopment
	}
	return Plugin{
		Name: PluginDefine,
		Options: map[string]any{
			"definitions": maps.Clone(f.environment(in.admin, env)),
		},
	}
}

func nodePolyfillPlugin(*Factory, input) Plugin {
	return Plugin{
		Name: PluginNodePolyfill,
		Options: map[string]any{
			"fallbacks": NodeFallbacks(),
		},
	}
}

func typecheckPlugin(f *Factory, in input) Plugin {
	return Plugin{
		Name: PluginTypecheck,
		Options: map[string]any{
			"configFile": f.tsconfigFile(in.Options),
			"async":      !in.IsProduction(),
		},
	}
}

func ignoreLocalesPlugin(*Factory, input) Plugin {
	return Plugin{
		Name: PluginIgnoreLocales,
		Options: map[string]any{
			"resourceRegExp": `^\./locale$`,
			"contextRegExp":  `moment$`,
		},
	}
}

func extractCSSPlugin(*Factory, input) Plugin {
	return Plugin{
		Name: PluginExtractCSS,
		Options: map[string]any{
			"filename":      "[name].[hash]",
			"chunkFilename": "[name].[hash].chunk",
			"ignoreOrder":   true,
		},
	}
}

func progressPlugin(*Factory, input) Plugin {
	return Plugin{Name: PluginProgress}
}

// NodeFallbacks maps node core modules to their browser implementations.
func NodeFallbacks() map[string]string {
	return map[string]string{
		"assert":         "assert/",
		"buffer":         "buffer/",
		"console":        "console-browserify",
		"constants":      "constants-browserify",
		"crypto":         "crypto-browserify",
		"domain":         "domain-browser",
		"events":         "events/",
		"http":           "stream-http",
		"https":          "https-browserify",
		"os":             "os-browserify/browser",
		"path":           "path-browserify",
		"process":        "process/browser",
		"punycode":       "punycode/",
		"querystring":    "querystring-es3",
		"stream":         "stream-browserify",
		"string_decoder": "string_decoder/",
		"sys":            "util/",
		"timers":         "timers-browserify",
		"tty":            "tty-browserify",
		"url":            "url/",
		"util":           "util/",
		"vm":             "vm-browserify",
		"zlib":           "browserify-zlib",
	}
}
