package assets

import (
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/adminpack/internal/bundler"
)

func testBundle(env bundler.Env) bundler.Config {
	return bundler.New(bundler.WithModulesDir("/opt/admin/node_modules")).Config(bundler.Options{
		AppDir:   "/srv/app",
		CacheDir: "/srv/app/.cache",
		Dest:     "build",
		Entry:    "/srv/app/.cache/admin/src/app.js",
		Env:      env,
		Optimize: env == bundler.EnvProduction,
	})
}

func TestBuildOptions(t *testing.T) {
	t.Run("production", func(t *testing.T) {
		opts := BuildOptions(testBundle(bundler.EnvProduction), "/srv/app")

		assert.Equal(t, "/srv/app/build", opts.Outdir)
		assert.Equal(t, "/admin/", opts.PublicPath)
		assert.Equal(t, "[name].[hash]", opts.EntryNames)
		assert.Equal(t, "[name].[hash].chunk", opts.ChunkNames)
		assert.True(t, opts.MinifyWhitespace)
		assert.True(t, opts.MinifyIdentifiers)
		assert.True(t, opts.MinifySyntax)
		assert.Equal(t, api.SourceMapNone, opts.Sourcemap)
		assert.Equal(t, api.ES2015, opts.Target)
		assert.Equal(t, `"production"`, opts.Define["process.env.NODE_ENV"])
	})

	t.Run("development", func(t *testing.T) {
		opts := BuildOptions(testBundle(bundler.EnvDevelopment), "/srv/app")

		assert.Equal(t, "[name].bundle", opts.EntryNames)
		assert.Equal(t, "[name].chunk", opts.ChunkNames)
		assert.False(t, opts.MinifyWhitespace)
		assert.Equal(t, `"development"`, opts.Define["process.env.NODE_ENV"])
	})

	t.Run("resolution", func(t *testing.T) {
		opts := BuildOptions(testBundle(bundler.EnvDevelopment), "/srv/app")

		require.Equal(t, []api.EntryPoint{{InputPath: EntryPoint, OutputPath: "main"}}, opts.EntryPointsAdvanced)
		assert.True(t, opts.PreserveSymlinks)
		assert.Equal(t, []string{"/opt/admin/node_modules"}, opts.NodePaths)
		assert.Equal(t, []string{".js", ".jsx", ".react.js", ".ts", ".tsx"}, opts.ResolveExtensions)
		assert.Equal(t, []string{"browser", "jsnext:main", "main"}, opts.MainFields)
		assert.Equal(t, "globalThis", opts.Define["global"])
		assert.True(t, opts.Metafile)
		assert.Equal(t, api.FormatESModule, opts.Format)
	})
}

func TestBuildOptions_Loaders(t *testing.T) {
	opts := BuildOptions(testBundle(bundler.EnvProduction), "/srv/app")

	for _, ext := range []string{".svg", ".eot", ".otf", ".ttf", ".woff", ".woff2", ".bmp", ".gif", ".jpg", ".jpeg", ".png", ".ico", ".mp4", ".webm"} {
		assert.Equal(t, api.LoaderFile, opts.Loader[ext], ext)
	}
	assert.NotContains(t, opts.Loader, ".css")
	assert.NotContains(t, opts.Loader, ".html")
}

func TestSourceMap(t *testing.T) {
	assert.Equal(t, api.SourceMapNone, sourceMap(bundler.DevtoolNone))
	assert.Equal(t, api.SourceMapInline, sourceMap(bundler.DevtoolInline))
	assert.Equal(t, api.SourceMapLinked, sourceMap(bundler.DevtoolLinked))
	assert.Equal(t, api.SourceMapNone, sourceMap(""))
}
