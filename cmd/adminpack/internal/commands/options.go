package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wolfeidau/adminpack/internal/bundler"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoEntry    = errors.New("entry is required (--entry, ADMINPACK_ENTRY or the options file)")
	ErrInvalidEnv = errors.New("env must be development or production")
)

// BundleFlags are the build options shared by every command.
type BundleFlags struct {
	// Options file, values in it take precedence over flags
	Config string `help:"YAML/JSON build options file" env:"ADMINPACK_CONFIG"`

	// Paths
	AppDir      string   `help:"application root directory" default:"." env:"ADMINPACK_APP_DIR"`
	CacheDir    string   `help:"generated admin sources directory (default: <app-dir>/.cache)" env:"ADMINPACK_CACHE_DIR"`
	Dest        string   `help:"output directory" default:"build" env:"ADMINPACK_DEST"`
	Entry       string   `help:"entry module" env:"ADMINPACK_ENTRY"`
	PluginsPath []string `help:"plugin admin source directories" env:"ADMINPACK_PLUGINS_PATH"`

	// Build mode
	Env        string `help:"build environment, development or production (default depends on the command)" env:"ADMINPACK_ENV"`
	Optimize   bool   `help:"minify the output" default:"false" env:"ADMINPACK_OPTIMIZE"`
	TypeScript bool   `help:"compile and type check TypeScript sources" default:"false" env:"ADMINPACK_TYPESCRIPT"`

	// Admin options
	Backend   string   `help:"backend URL the admin panel talks to" default:"http://localhost:1337" env:"ADMINPACK_BACKEND"`
	AdminPath string   `help:"public path the admin panel is served under" default:"/admin/" env:"ADMINPACK_ADMIN_PATH"`
	Features  []string `help:"enabled enterprise features" env:"ADMINPACK_FEATURES"`
	Edition   string   `help:"code variant for ee_else_ce imports" default:"ce" enum:"ce,ee" env:"ADMINPACK_EDITION"`
	EERoot    string   `help:"enterprise edition root" default:"./ee/admin" env:"ADMINPACK_EE_ROOT"`
	CERoot    string   `help:"community edition root" default:"./admin/src" env:"ADMINPACK_CE_ROOT"`

	// Factory collaborators
	Template      string            `help:"HTML template (default: <app-dir>/admin/index.html)" env:"ADMINPACK_TEMPLATE"`
	TSConfig      string            `name:"tsconfig" help:"type checker config (default: <app-dir>/src/admin/tsconfig.json)" env:"ADMINPACK_TSCONFIG"`
	ModulesDir    string            `help:"module directory searched after node_modules (default: <app-dir>/node_modules)" env:"ADMINPACK_MODULES_DIR"`
	PolyfillEntry string            `help:"module prepended to the entry list" default:"@babel/polyfill" env:"ADMINPACK_POLYFILL_ENTRY"`
	Alias         map[string]string `help:"module aliases" env:"ADMINPACK_ALIAS"`
}

// options returns the build options, applying the options file and path
// defaults. defaultEnv is used when no environment was given.
func (f *BundleFlags) options(defaultEnv bundler.Env) (bundler.Options, error) {
	opts := bundler.Options{
		AppDir:      f.AppDir,
		CacheDir:    f.CacheDir,
		Dest:        f.Dest,
		Entry:       f.Entry,
		Env:         bundler.Env(f.Env),
		Optimize:    f.Optimize,
		PluginsPath: append([]string{}, f.PluginsPath...),
		Admin: &bundler.AdminOptions{
			Backend:   f.Backend,
			AdminPath: f.AdminPath,
			Features:  append([]string{}, f.Features...),
			Edition:   bundler.Edition(f.Edition),
		},
		Roots: &bundler.Roots{
			EERoot: f.EERoot,
			CERoot: f.CERoot,
		},
		UseTypeScript: f.TypeScript,
	}

	if f.Config != "" {
		file, err := loadOptionsFile(f.Config)
		if err != nil {
			return bundler.Options{}, fmt.Errorf("failed to load options file: %w", err)
		}
		mergeOptions(&opts, file)
	}

	if opts.Env == "" {
		opts.Env = defaultEnv
	}
	if opts.Env != bundler.EnvDevelopment && opts.Env != bundler.EnvProduction {
		return bundler.Options{}, fmt.Errorf("%w, got %q", ErrInvalidEnv, opts.Env)
	}

	if opts.AppDir == "" {
		opts.AppDir = "."
	}
	appDir, err := filepath.Abs(opts.AppDir)
	if err != nil {
		return bundler.Options{}, fmt.Errorf("failed to resolve app directory: %w", err)
	}
	opts.AppDir = appDir

	if opts.CacheDir == "" {
		opts.CacheDir = filepath.Join(appDir, ".cache")
	}
	opts.CacheDir = absFrom(appDir, opts.CacheDir)
	for i, path := range opts.PluginsPath {
		opts.PluginsPath[i] = absFrom(appDir, path)
	}

	if opts.Entry == "" {
		return bundler.Options{}, ErrNoEntry
	}
	opts.Entry = absFrom(appDir, opts.Entry)

	return opts, nil
}

// factory builds the configuration factory for the given app directory.
func (f *BundleFlags) factory(appDir string) *bundler.Factory {
	factoryOpts := []bundler.FactoryOption{
		bundler.WithEnvironment(bundler.StaticEnvironment(os.Environ())),
		bundler.WithAliases(f.Alias),
		bundler.WithPolyfillEntry(f.PolyfillEntry),
	}
	if f.Template != "" {
		factoryOpts = append(factoryOpts, bundler.WithTemplatePath(absFrom(appDir, f.Template)))
	}
	if f.TSConfig != "" {
		factoryOpts = append(factoryOpts, bundler.WithTSConfigPath(absFrom(appDir, f.TSConfig)))
	}
	if f.ModulesDir != "" {
		factoryOpts = append(factoryOpts, bundler.WithModulesDir(absFrom(appDir, f.ModulesDir)))
	}
	return bundler.New(factoryOpts...)
}

// configure resolves the options and derives the bundle configuration.
func (f *BundleFlags) configure(defaultEnv bundler.Env) (bundler.Config, *bundler.Factory, error) {
	opts, err := f.options(defaultEnv)
	if err != nil {
		return bundler.Config{}, nil, err
	}
	factory := f.factory(opts.AppDir)
	return factory.Config(opts), factory, nil
}

// optionsFile is the options file format. Booleans are pointers so a file
// can turn off a flag as well as turn it on.
type optionsFile struct {
	AppDir        string                `yaml:"appDir" json:"appDir"`
	CacheDir      string                `yaml:"cacheDir" json:"cacheDir"`
	Dest          string                `yaml:"dest" json:"dest"`
	Entry         string                `yaml:"entry" json:"entry"`
	Env           bundler.Env           `yaml:"env" json:"env"`
	Optimize      *bool                 `yaml:"optimize" json:"optimize"`
	PluginsPath   []string              `yaml:"pluginsPath" json:"pluginsPath"`
	Admin         *bundler.AdminOptions `yaml:"options" json:"options"`
	Roots         *bundler.Roots        `yaml:"roots" json:"roots"`
	UseTypeScript *bool                 `yaml:"useTypeScript" json:"useTypeScript"`
}

func loadOptionsFile(path string) (optionsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return optionsFile{}, fmt.Errorf("failed to read options file: %w", err)
	}

	var file optionsFile

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := json.Unmarshal(data, &file); err != nil {
			return optionsFile{}, fmt.Errorf("failed to parse JSON options: %w", err)
		}
		return file, nil
	}

	if err := yaml.Unmarshal(data, &file); err != nil {
		return optionsFile{}, fmt.Errorf("failed to parse YAML options: %w", err)
	}
	return file, nil
}

// mergeOptions overrides opts with every value set in file.
func mergeOptions(opts *bundler.Options, file optionsFile) {
	if file.AppDir != "" {
		opts.AppDir = file.AppDir
	}
	if file.CacheDir != "" {
		opts.CacheDir = file.CacheDir
	}
	if file.Dest != "" {
		opts.Dest = file.Dest
	}
	if file.Entry != "" {
		opts.Entry = file.Entry
	}
	if file.Env != "" {
		opts.Env = file.Env
	}
	if file.Optimize != nil {
		opts.Optimize = *file.Optimize
	}
	if len(file.PluginsPath) > 0 {
		opts.PluginsPath = file.PluginsPath
	}
	if file.UseTypeScript != nil {
		opts.UseTypeScript = *file.UseTypeScript
	}

	if admin := file.Admin; admin != nil {
		if admin.Backend != "" {
			opts.Admin.Backend = admin.Backend
		}
		if admin.AdminPath != "" {
			opts.Admin.AdminPath = admin.AdminPath
		}
		if len(admin.Features) > 0 {
			opts.Admin.Features = admin.Features
		}
		if admin.Edition != "" {
			opts.Admin.Edition = admin.Edition
		}
	}

	if roots := file.Roots; roots != nil {
		if roots.EERoot != "" {
			opts.Roots.EERoot = roots.EERoot
		}
		if roots.CERoot != "" {
			opts.Roots.CERoot = roots.CERoot
		}
	}
}

func absFrom(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}
