package bundler

import "path/filepath"

// Rule names.
const (
	RuleTypeScript       = "typescript"
	RulePluginJavaScript = "plugin-javascript"
	RuleJavaScript       = "javascript"
	RuleStylesheet       = "stylesheet"
	RuleResource         = "resource"
	RuleImage            = "image"
	RuleMarkup           = "markup"
	RuleVideo            = "video"
)

// Inline limits in bytes; assets of at most this size become data URLs.
const (
	ImageInlineLimit = 1000
	VideoInlineLimit = 10000
)

// Path patterns.
const (
	TypeScriptPattern  = `\.tsx?$`
	JavaScriptPattern  = `\.m?jsx?$`
	StylesheetPattern  = `\.css$`
	ResourcePattern    = `\.(svg|eot|otf|ttf|woff|woff2)$`
	ImagePattern       = `\.(bmp|gif|jpe?g|png|ico)$`
	MarkupPattern      = `\.html$`
	VideoPattern       = `\.(mp4|webm)$`
	NodeModulesPattern = `node_modules`
)

// browserTargets is the compatibility target of the full pipeline.
var browserTargets = []string{"> 0.25%", "last 2 versions", "not dead", "not ie <= 11"}

// rules returns the module rules in match order. Plugin path sources are
// matched before the cache directory rule so they always take the fast
// pipeline, even when a plugin lives inside the cache directory.
func (f *Factory) rules(in input) []Rule {
	var rules []Rule

	if in.UseTypeScript {
		rules = append(rules, Rule{
			Name:    RuleTypeScript,
			Test:    TypeScriptPattern,
			Include: append([]string{in.CacheDir}, in.PluginsPath...),
			Exclude: NodeModulesPattern,
			Use: []Loader{{
				Name:    "esbuild-loader",
				Options: map[string]any{"loader": "tsx", "target": Target},
			}},
		})
	}

	if len(in.PluginsPath) > 0 {
		rules = append(rules, Rule{
			Name:     RulePluginJavaScript,
			Test:     JavaScriptPattern,
			Include:  append([]string{}, in.PluginsPath...),
			Pipeline: PipelineFast,
			Use:      fastPipeline(),
		})
	}

	rules = append(rules,
		Rule{
			Name:    RuleJavaScript,
			Test:    JavaScriptPattern,
			Include: []string{in.CacheDir},
			OneOf: []Rule{
				{
					Name:        RuleJavaScript + "-" + string(PipelineFull),
					ContentTest: EditionImportPattern,
					Pipeline:    PipelineFull,
					Use:         fullPipeline(in),
				},
				{
					Name:     RuleJavaScript + "-" + string(PipelineFast),
					Pipeline: PipelineFast,
					Use:      fastPipeline(),
				},
			},
		},
		Rule{
			Name: RuleStylesheet,
			Test: StylesheetPattern,
			Use:  []Loader{{Name: "style-loader"}, {Name: "css-loader"}},
		},
		Rule{
			Name: RuleResource,
			Test: ResourcePattern,
			Type: RuleTypeResource,
		},
		Rule{
			Name:        RuleImage,
			Test:        ImagePattern,
			Type:        RuleTypeAsset,
			InlineLimit: ImageInlineLimit,
		},
		Rule{
			Name:    RuleMarkup,
			Test:    MarkupPattern,
			Include: []string{filepath.Join(in.AppDir, "admin", "src")},
			Use:     []Loader{{Name: "html-loader"}},
		},
		Rule{
			Name:        RuleVideo,
			Test:        VideoPattern,
			Type:        RuleTypeAsset,
			InlineLimit: VideoInlineLimit,
		},
	)

	return rules
}

func fastPipeline() []Loader {
	return []Loader{{
		Name:    "esbuild-loader",
		Options: map[string]any{"loader": "jsx", "target": Target},
	}}
}

func fullPipeline(in input) []Loader {
	production := in.IsProduction()
	return []Loader{{
		Name: "babel-loader",
		Options: map[string]any{
			"cacheDirectory":   true,
			"cacheCompression": production,
			"compact":          production,
			"presets": []Loader{
				{
					Name: "@babel/preset-env",
					Options: map[string]any{
						"useBuiltIns": false,
						"targets":     append([]string{}, browserTargets...),
					},
				},
				{Name: "@babel/preset-react"},
			},
			"plugins": []Loader{
				{
					Name: "switch-ee-ce",
					Options: map[string]any{
						"eeRoot":  in.roots.EERoot,
						"ceRoot":  in.roots.CERoot,
						"edition": string(in.admin.Edition),
					},
				},
				{
					Name:    "@babel/plugin-transform-runtime",
					Options: map[string]any{"helpers": true, "regenerator": true},
				},
				{
					Name:    "babel-plugin-styled-components",
					Options: map[string]any{"pure": true},
				},
			},
		},
	}}
}
