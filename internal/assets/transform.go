package assets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/adminpack/internal/bundler"
)

// entryPlugin serves the virtual entry module importing the configured entry
// list in order, so the polyfill runs before the application.
func (p *Pipeline) entryPlugin() api.Plugin {
	return api.Plugin{
		Name: "entry",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(EntryPoint) + "$"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: entryName, Namespace: entryNamespace}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: entryNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := entrySource(p.bundle.Entry, p.workDir)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: p.workDir,
						Loader:     api.LoaderJS,
					}, nil
				})
		},
	}
}

func entrySource(entries []string, workDir string) string {
	var b strings.Builder
	for _, entry := range entries {
		specifier := entry
		switch {
		case filepath.IsAbs(entry):
			specifier = filepath.ToSlash(entry)
		case strings.HasPrefix(entry, "./"), strings.HasPrefix(entry, "../"):
		default:
			if _, err := os.Stat(filepath.Join(workDir, entry)); err == nil {
				specifier = "./" + filepath.ToSlash(entry)
			}
		}
		fmt.Fprintf(&b, "import %s;\n", quoteJS(specifier))
	}
	return b.String()
}

// transformPlugin loads script modules through the pipeline their rule
// selects. The full pipeline rewrites ee_else_ce imports to the edition root.
func (p *Pipeline) transformPlugin() api.Plugin {
	root := p.bundle.EditionRoot()

	return api.Plugin{
		Name: "transform",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.(m?jsx?|tsx?)$`, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					rule, ok := p.factory.RuleFor(p.bundle, args.Path)
					if !ok || len(rule.Use) == 0 {
						return api.OnLoadResult{}, nil
					}

					src, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					loader := api.LoaderJSX
					if rule.Name == bundler.RuleTypeScript {
						loader = api.LoaderTSX
					}

					if rule.Pipeline == bundler.PipelineFull {
						src = bundler.RewriteEditionImports(src, root)
						log.Debug().Str("path", args.Path).Str("root", root).Msg("Switched edition imports")
					}

					contents := string(src)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: filepath.Dir(args.Path),
						Loader:     loader,
					}, nil
				})
		},
	}
}

// assetPlugin inlines assets up to their rule's size limit as data URLs and
// emits larger ones as files.
func (p *Pipeline) assetPlugin() api.Plugin {
	return api.Plugin{
		Name: "inline-assets",
		Setup: func(build api.PluginBuild) {
			for _, rule := range p.bundle.Module.Rules {
				if rule.Type != bundler.RuleTypeAsset {
					continue
				}
				build.OnLoad(api.OnLoadOptions{Filter: rule.Test, Namespace: "file"},
					func(args api.OnLoadArgs) (api.OnLoadResult, error) {
						matched, ok := p.factory.RuleFor(p.bundle, args.Path)
						if !ok || matched.Type != bundler.RuleTypeAsset {
							return api.OnLoadResult{}, nil
						}

						data, err := os.ReadFile(args.Path)
						if err != nil {
							return api.OnLoadResult{}, err
						}

						contents := string(data)
						return api.OnLoadResult{
							Contents: &contents,
							Loader:   assetLoader(matched, int64(len(data))),
						}, nil
					})
			}
		},
	}
}

func assetLoader(rule bundler.Rule, size int64) api.Loader {
	if bundler.InlineAsset(rule, size) {
		return api.LoaderDataURL
	}
	return api.LoaderFile
}

// markupPlugin loads HTML fragments from the admin source tree as text.
func (p *Pipeline) markupPlugin() api.Plugin {
	rule, ok := p.bundle.Rule(bundler.RuleMarkup)

	return api.Plugin{
		Name: "markup",
		Setup: func(build api.PluginBuild) {
			if !ok {
				return
			}
			build.OnLoad(api.OnLoadOptions{Filter: rule.Test, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					matched, ok := p.factory.RuleFor(p.bundle, args.Path)
					if !ok || matched.Name != bundler.RuleMarkup {
						return api.OnLoadResult{}, nil
					}

					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					contents := string(data)
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderText}, nil
				})
		},
	}
}

// styleInjectPlugin turns stylesheets into modules that append a <style>
// element at runtime. Each stylesheet is bundled first so its @import rules
// are inlined and url() references point at emitted assets.
func (p *Pipeline) styleInjectPlugin(rule bundler.Rule) api.Plugin {
	return api.Plugin{
		Name: "style-inject",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: rule.Test, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					css, watchFiles, err := p.bundleStylesheet(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}

					contents := styleModule(css, args.Path)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: filepath.Dir(args.Path),
						Loader:     api.LoaderJS,
						WatchFiles: watchFiles,
					}, nil
				})
		},
	}
}

// bundleStylesheet bundles a single stylesheet with the asset rules of the
// main build and writes the assets it references. It returns the CSS and the
// files it was built from.
func (p *Pipeline) bundleStylesheet(path string) (string, []string, error) {
	opts := BuildOptions(p.bundle, p.workDir)
	opts.EntryPointsAdvanced = nil
	opts.EntryPoints = []string{path}
	opts.EntryNames = "[name]"
	opts.Splitting = false
	opts.Sourcemap = api.SourceMapNone
	opts.Write = false
	opts.Plugins = []api.Plugin{p.assetPlugin()}

	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return "", nil, fmt.Errorf("failed to bundle %s: %s", filepath.Base(path), formatMessage(result.Errors[0]))
	}

	var css strings.Builder
	for _, file := range result.OutputFiles {
		if filepath.Ext(file.Path) == ".css" {
			css.Write(file.Contents)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(file.Path), 0o755); err != nil {
			return "", nil, err
		}
		if err := os.WriteFile(file.Path, file.Contents, 0o600); err != nil {
			return "", nil, err
		}
		log.Debug().Str("file", file.Path).Str("stylesheet", path).Msg("Wrote stylesheet asset")
	}

	var metafile struct {
		Inputs map[string]json.RawMessage `json:"inputs"`
	}
	if err := json.Unmarshal([]byte(result.Metafile), &metafile); err != nil {
		return "", nil, fmt.Errorf("failed to parse stylesheet metafile: %w", err)
	}
	watchFiles := make([]string, 0, len(metafile.Inputs))
	for input := range metafile.Inputs {
		if !filepath.IsAbs(input) {
			input = filepath.Join(p.workDir, input)
		}
		watchFiles = append(watchFiles, input)
	}

	return css.String(), watchFiles, nil
}

func styleModule(css, source string) string {
	return fmt.Sprintf(`const css = %s;
if (typeof document !== "undefined") {
  const style = document.createElement("style");
  style.setAttribute("data-source", %s);
  style.textContent = css;
  document.head.appendChild(style);
}
export default css;
`, quoteJS(css), quoteJS(filepath.Base(source)))
}

func quoteJS(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
