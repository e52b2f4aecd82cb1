package bundler

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFiles is an in-memory FileReader.
type memFiles map[string]string

func (m memFiles) read(path string) ([]byte, error) {
	content, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(content), nil
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		err      error
		expected Pipeline
	}{
		{
			name:     "single quoted edition import",
			content:  "import Admin from 'ee_else_ce/pages/Admin';\n",
			expected: PipelineFull,
		},
		{
			name:     "double quoted edition import",
			content:  `import { useLicense } from "ee_else_ce/hooks";`,
			expected: PipelineFull,
		},
		{
			name:     "named imports spanning one line",
			content:  "import React from 'react';\nimport { a, b } from 'ee_else_ce/utils/x';\n",
			expected: PipelineFull,
		},
		{
			name:     "plain module",
			content:  "import React from 'react';\nexport default () => null;\n",
			expected: PipelineFast,
		},
		{
			name:     "comment mentioning the prefix still matches",
			content:  "// moved away from 'ee_else_ce/old'\n",
			expected: PipelineFull,
		},
		{
			name:     "match is case sensitive",
			content:  "import x from 'EE_ELSE_CE/pages';",
			expected: PipelineFast,
		},
		{
			name:     "quote must follow a space",
			content:  "import x from'ee_else_ce/pages';",
			expected: PipelineFast,
		},
		{
			name:     "require call is not an import",
			content:  "const x = require('ee_else_ce/pages');",
			expected: PipelineFast,
		},
		{
			name:     "read error falls back",
			content:  "import x from 'ee_else_ce/pages';",
			err:      errors.New("permission denied"),
			expected: PipelineFast,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Classify([]byte(tt.content), tt.err))
		})
	}
}

func TestPipelineFor(t *testing.T) {
	files := memFiles{
		"/app/.cache/admin/src/pages/App.js":   "import Home from 'ee_else_ce/pages/Home';",
		"/app/.cache/admin/src/pages/Plain.js": "export const x = 1;",
	}
	f := New(WithFileReader(files.read))

	require.Equal(t, PipelineFull, f.PipelineFor("/app/.cache/admin/src/pages/App.js"))
	require.Equal(t, PipelineFast, f.PipelineFor("/app/.cache/admin/src/pages/Plain.js"))
	require.Equal(t, PipelineFast, f.PipelineFor("/app/.cache/admin/src/pages/Missing.js"))
}

func TestPipelineFor_Disk(t *testing.T) {
	dir := t.TempDir()
	withImport := filepath.Join(dir, "with.js")
	require.NoError(t, os.WriteFile(withImport, []byte("import A from \"ee_else_ce/a\";\n"), 0600))

	f := New()

	require.Equal(t, PipelineFull, f.PipelineFor(withImport))
	require.Equal(t, PipelineFast, f.PipelineFor(filepath.Join(dir, "does-not-exist.js")))
}

func TestRuleFor_JavaScript(t *testing.T) {
	files := memFiles{
		"/srv/app/.cache/admin/src/app.js":                      "import Auth from 'ee_else_ce/pages/Auth';",
		"/srv/app/.cache/admin/src/utils.js":                    "export default 1;",
		"/srv/app/node_modules/plugin-users/admin/src/index.js": "import X from 'ee_else_ce/components/X';",
	}

	for _, env := range []Env{EnvDevelopment, EnvProduction} {
		t.Run(string(env), func(t *testing.T) {
			f := New(WithFileReader(files.read))
			cfg := f.Config(testOptions(env))

			rule, ok := f.RuleFor(cfg, "/srv/app/.cache/admin/src/app.js")
			require.True(t, ok)
			assert.Equal(t, PipelineFull, rule.Pipeline)
			assert.Equal(t, "babel-loader", rule.Use[0].Name)

			rule, ok = f.RuleFor(cfg, "/srv/app/.cache/admin/src/utils.js")
			require.True(t, ok)
			assert.Equal(t, PipelineFast, rule.Pipeline)
			assert.Equal(t, "esbuild-loader", rule.Use[0].Name)

			rule, ok = f.RuleFor(cfg, "/srv/app/.cache/admin/src/gone.js")
			require.True(t, ok)
			assert.Equal(t, PipelineFast, rule.Pipeline)

			rule, ok = f.RuleFor(cfg, "/srv/app/node_modules/plugin-users/admin/src/index.js")
			require.True(t, ok)
			assert.Equal(t, RulePluginJavaScript, rule.Name)
			assert.Equal(t, PipelineFast, rule.Pipeline)
		})
	}
}

func TestRuleFor_PluginInsideCacheDir(t *testing.T) {
	files := memFiles{
		"/srv/app/.cache/plugins/seo/admin/index.js": "import X from 'ee_else_ce/x';",
	}
	opts := testOptions(EnvDevelopment)
	opts.PluginsPath = []string{"/srv/app/.cache/plugins/seo/admin"}

	f := New(WithFileReader(files.read))
	rule, ok := f.RuleFor(f.Config(opts), "/srv/app/.cache/plugins/seo/admin/index.js")

	require.True(t, ok)
	require.Equal(t, PipelineFast, rule.Pipeline)
}

func TestRuleFor_Assets(t *testing.T) {
	f := New(WithFileReader(memFiles{}.read))
	cfg := f.Config(testOptions(EnvDevelopment))

	tests := []struct {
		path     string
		expected string
	}{
		{path: "/srv/app/.cache/admin/src/assets/logo.png", expected: RuleImage},
		{path: "/srv/app/.cache/admin/src/assets/photo.jpeg", expected: RuleImage},
		{path: "/srv/app/.cache/admin/src/assets/icon.svg", expected: RuleResource},
		{path: "/srv/app/.cache/admin/src/assets/font.woff2", expected: RuleResource},
		{path: "/srv/app/.cache/admin/src/assets/intro.mp4", expected: RuleVideo},
		{path: "/srv/app/.cache/admin/src/styles/main.css", expected: RuleStylesheet},
		{path: "/srv/app/admin/src/fragment.html", expected: RuleMarkup},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rule, ok := f.RuleFor(cfg, tt.path)
			require.True(t, ok)
			require.Equal(t, tt.expected, rule.Name)
		})
	}

	_, ok := f.RuleFor(cfg, "/srv/app/elsewhere/fragment.html")
	require.False(t, ok, "markup outside the admin source tree has no rule")
}

func TestRuleFor_CompilesPatternsOnce(t *testing.T) {
	f := New(WithFileReader(memFiles{}.read))
	cfg := f.Config(testOptions(EnvDevelopment))

	_, ok := f.RuleFor(cfg, "/srv/app/.cache/admin/src/assets/logo.png")
	require.True(t, ok)

	cached, ok := f.cache.patterns.Load(ImagePattern)
	require.True(t, ok)
	first := cached.(*regexp.Regexp)
	require.NotNil(t, first)

	_, ok = f.RuleFor(cfg, "/srv/app/.cache/admin/src/assets/other.png")
	require.True(t, ok)
	require.Same(t, first, f.compiled(ImagePattern))
}

func TestRuleFor_InvalidPattern(t *testing.T) {
	f := New()
	cfg := Config{Module: Module{Rules: []Rule{
		{Name: "broken", Test: `(`},
		{Name: "fallback", Test: `\.js$`},
	}}}

	for range 2 {
		rule, ok := f.RuleFor(cfg, "/srv/app/index.js")
		require.True(t, ok)
		require.Equal(t, "fallback", rule.Name)
	}
	require.Nil(t, f.compiled(`(`))
}

func TestInlineAsset(t *testing.T) {
	cfg := New().Config(testOptions(EnvProduction))
	image, ok := cfg.Rule(RuleImage)
	require.True(t, ok)
	video, ok := cfg.Rule(RuleVideo)
	require.True(t, ok)
	resource, ok := cfg.Rule(RuleResource)
	require.True(t, ok)

	assert.True(t, InlineAsset(image, 999))
	assert.True(t, InlineAsset(image, 1000))
	assert.False(t, InlineAsset(image, 1001))

	assert.True(t, InlineAsset(video, 10000))
	assert.False(t, InlineAsset(video, 10001))

	assert.False(t, InlineAsset(resource, 10))
}

func TestWithin(t *testing.T) {
	assert.True(t, Within("/a/b", "/a/b"))
	assert.True(t, Within("/a/b", "/a/b/c.js"))
	assert.True(t, Within("/a/b/", "/a/b/c/d.js"))
	assert.False(t, Within("/a/b", "/a/bc/d.js"))
	assert.False(t, Within("/a/b", "/a/c.js"))
	assert.True(t, Within("/a/b", "/a/b/..foo.js"))
}
