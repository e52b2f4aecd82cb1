// Package bundler derives the bundle configuration of the admin panel from a
// small set of build options.
//
// The derived Config is plain data. Executing it is the job of the assets
// package, which maps it onto esbuild.
package bundler

import (
	"maps"
	"os"
	"path/filepath"
)

// Target is the language level every transform pipeline compiles down to.
const Target = "es2015"

// DefaultPolyfillEntry is prepended to the entry list.
const DefaultPolyfillEntry = "@babel/polyfill"

// Factory builds configurations. The zero value is not usable, use New.
type Factory struct {
	reader        FileReader
	aliases       map[string]string
	environment   EnvironmentFunc
	templatePath  string
	tsconfigPath  string
	modulesDir    string
	polyfillEntry string

	cache *patternCache
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithFileReader replaces the reader used for content tests.
func WithFileReader(reader FileReader) FactoryOption {
	return func(f *Factory) {
		f.reader = reader
	}
}

// WithAliases sets the module alias table.
func WithAliases(aliases map[string]string) FactoryOption {
	return func(f *Factory) {
		f.aliases = maps.Clone(aliases)
	}
}

// WithEnvironment sets the build-time constant derivation.
func WithEnvironment(fn EnvironmentFunc) FactoryOption {
	return func(f *Factory) {
		f.environment = fn
	}
}

// WithTemplatePath sets the HTML template, default <app>/admin/index.html.
func WithTemplatePath(path string) FactoryOption {
	return func(f *Factory) {
		f.templatePath = path
	}
}

// WithTSConfigPath sets the type checker config, default
// <app>/src/admin/tsconfig.json.
func WithTSConfigPath(path string) FactoryOption {
	return func(f *Factory) {
		f.tsconfigPath = path
	}
}

// WithModulesDir sets the absolute module directory searched after
// node_modules, default <app>/node_modules.
func WithModulesDir(dir string) FactoryOption {
	return func(f *Factory) {
		f.modulesDir = dir
	}
}

// WithPolyfillEntry replaces the module prepended to the entry list.
func WithPolyfillEntry(entry string) FactoryOption {
	return func(f *Factory) {
		f.polyfillEntry = entry
	}
}

// New creates a Factory. Without options it reads files from disk and derives
// constants from the admin options alone.
func New(opts ...FactoryOption) *Factory {
	f := &Factory{
		reader:        os.ReadFile,
		environment:   StaticEnvironment(nil),
		polyfillEntry: DefaultPolyfillEntry,
		cache:         &patternCache{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Config derives the bundle configuration for opts. It does not touch the
// filesystem; content tests run later through PipelineFor and RuleFor.
func (f *Factory) Config(opts Options) Config {
	admin := opts.adminOptions()
	roots := opts.roots()

	in := input{
		Options: opts,
		admin:   admin,
		roots:   roots,
	}

	cfg := Config{
		Mode:    EnvDevelopment,
		Devtool: DevtoolNone,
		Bail:    opts.IsProduction(),
		Entry:   []string{f.polyfillEntry, opts.Entry},
		Output: Output{
			Path:          opts.Dest,
			PublicPath:    admin.AdminPath,
			Filename:      cond(opts.IsProduction(), "[name].[hash]", "[name].bundle"),
			ChunkFilename: cond(opts.IsProduction(), "[name].[hash].chunk", "[name].chunk"),
			AssetFilename: "[name].[hash]",
		},
		Module:  Module{Rules: f.rules(in)},
		Plugins: f.plugins(in),
		Resolve: Resolve{
			Alias:      f.aliasTable(),
			Symlinks:   false,
			Extensions: []string{".js", ".jsx", ".react.js", ".ts", ".tsx"},
			Modules:    []string{"node_modules", f.modulesPath(opts)},
			MainFields: []string{"browser", "jsnext:main", "main"},
		},
		Optimization: Optimization{
			Minimize: opts.Optimize,
			Minimizer: Plugin{
				Name:    "esbuild-minify",
				Options: map[string]any{"target": Target, "css": true},
			},
			ModuleIDs:    "deterministic",
			RuntimeChunk: true,
		},
		Admin:  admin,
		Roots:  roots,
		AppDir: opts.AppDir,
	}

	if opts.IsProduction() {
		cfg.Mode = EnvProduction
	}

	return cfg
}

// Devtool values.
const (
	DevtoolNone   = "none"
	DevtoolInline = "inline-source-map"
	DevtoolLinked = "source-map"
)

// input is the defaulted view of Options shared by the rule and plugin
// builders.
type input struct {
	Options
	admin AdminOptions
	roots Roots
}

func (f *Factory) aliasTable() map[string]string {
	if f.aliases == nil {
		return map[string]string{}
	}
	return maps.Clone(f.aliases)
}

func (f *Factory) modulesPath(opts Options) string {
	if f.modulesDir != "" {
		return f.modulesDir
	}
	dir, err := filepath.Abs(filepath.Join(opts.AppDir, "node_modules"))
	if err != nil {
		return filepath.Join(opts.AppDir, "node_modules")
	}
	return dir
}

func (f *Factory) templateFile(opts Options) string {
	if f.templatePath != "" {
		return f.templatePath
	}
	return filepath.Join(opts.AppDir, "admin", "index.html")
}

func (f *Factory) tsconfigFile(opts Options) string {
	if f.tsconfigPath != "" {
		return f.tsconfigPath
	}
	return filepath.Join(opts.AppDir, "src", "admin", "tsconfig.json")
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
