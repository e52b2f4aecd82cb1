package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/adminpack/internal/bundler"
)

// Report summarises a finished build.
type Report struct {
	BuildID     string
	Duration    time.Duration
	Outputs     []string
	Errors      []api.Message
	Warnings    []api.Message
	Fingerprint string
}

// Build runs esbuild with the configured settings and loads metadata. With
// Bail set any build error fails the build, otherwise errors are logged and
// returned in the report.
func (p *Pipeline) Build(ctx context.Context) (*Report, error) {
	buildID, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	log.Info().
		Str("build_id", buildID.String()).
		Str("mode", string(p.bundle.Mode)).
		Strs("entrypoints", p.bundle.Entry).
		Msg("Building assets")

	started := time.Now()

	opts := BuildOptions(p.bundle, p.workDir)
	opts.Plugins = p.plugins()

	result := api.Build(opts)

	report := &Report{
		BuildID:  buildID.String(),
		Duration: time.Since(started),
		Errors:   result.Errors,
		Warnings: result.Warnings,
	}

	for _, msg := range result.Warnings {
		log.Warn().Str("warning", formatMessage(msg)).Msg("Build warning")
	}

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Error().Str("error", formatMessage(msg)).Msg("Build error")
		}
		if p.bundle.Bail {
			return report, fmt.Errorf("%w: %s", ErrBuildFailed, formatMessage(result.Errors[0]))
		}
		return report, nil
	}

	for _, file := range result.OutputFiles {
		log.Debug().Str("file", file.Path).Msg("Built file")
		report.Outputs = append(report.Outputs, file.Path)
	}

	p.mu.RLock()
	if p.manifest != nil {
		report.Fingerprint = p.manifest.Fingerprint
	}
	p.mu.RUnlock()

	log.Info().
		Str("build_id", report.BuildID).
		Dur("duration", report.Duration).
		Int("outputs", len(report.Outputs)).
		Msg("Built assets")

	return report, nil
}

// Watch builds once and rebuilds on every source change until ctx is done.
func (p *Pipeline) Watch(ctx context.Context) error {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	opts := BuildOptions(p.bundle, p.workDir)
	opts.Plugins = append(p.plugins(), watchLogPlugin())

	buildCtx, ctxErr := api.Context(opts)
	if ctxErr != nil {
		return fmt.Errorf("failed to create build context: %w", ctxErr)
	}
	defer buildCtx.Dispose()

	if err := buildCtx.Watch(api.WatchOptions{}); err != nil {
		return fmt.Errorf("failed to start watching: %w", err)
	}

	log.Info().Str("dir", p.workDir).Msg("Watching for changes")

	<-ctx.Done()
	return nil
}

// watchLogPlugin reports the errors of each rebuild; in watch mode nothing
// else would surface them.
func watchLogPlugin() api.Plugin {
	return api.Plugin{
		Name: "watch-log",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				for _, msg := range result.Errors {
					log.Error().Str("error", formatMessage(msg)).Msg("Build error")
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}

// plugins maps the configured plugin descriptors onto esbuild plugins. The
// rule plugins come first so they claim files before the defaults.
func (p *Pipeline) plugins() []api.Plugin {
	plugins := []api.Plugin{
		p.entryPlugin(),
		p.transformPlugin(),
		p.assetPlugin(),
		p.markupPlugin(),
	}

	if _, extract := p.bundle.Plugin(bundler.PluginExtractCSS); !extract {
		if rule, ok := p.bundle.Rule(bundler.RuleStylesheet); ok {
			plugins = append(plugins, p.styleInjectPlugin(rule))
		}
	}

	for _, descriptor := range p.bundle.Plugins {
		switch descriptor.Name {
		case bundler.PluginIgnoreLocales:
			plugins = append(plugins, ignorePlugin(descriptor))
		case bundler.PluginNodePolyfill:
			plugins = append(plugins, nodePolyfillPlugin(descriptor))
		case bundler.PluginTypecheck:
			plugins = append(plugins, p.typecheckPlugin(descriptor))
		case bundler.PluginProgress:
			plugins = append(plugins, progressPlugin(descriptor.Name))
		}
	}

	return append(plugins, p.outputPlugin())
}

// outputPlugin post-processes every successful build: metadata, HTML,
// manifest and compressed copies.
func (p *Pipeline) outputPlugin() api.Plugin {
	return api.Plugin{
		Name: "output",
		Setup: func(build api.PluginBuild) {
			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}
				return api.OnEndResult{}, p.afterBuild(result)
			})
		},
	}
}

func (p *Pipeline) afterBuild(result *api.BuildResult) error {
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return fmt.Errorf("failed to parse metafile: %w", err)
	}

	p.mu.Lock()
	p.metadata = &metadata
	p.mu.Unlock()

	outDir := p.OutputDir()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	// Write metafile
	if err := os.WriteFile(filepath.Join(outDir, p.config.MetafileName), []byte(result.Metafile), 0o600); err != nil {
		return err
	}

	files := make([]outputFile, 0, len(result.OutputFiles)+1)
	for _, f := range result.OutputFiles {
		files = append(files, outputFile{Path: f.Path, Contents: f.Contents})
	}

	if descriptor, ok := p.bundle.Plugin(bundler.PluginHTML); ok {
		path, err := p.writeIndex(descriptor)
		if err != nil {
			return err
		}
		contents, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, outputFile{Path: path, Contents: contents})
	}

	if p.config.Compress {
		if err := compressOutputs(files); err != nil {
			return err
		}
	}

	if p.config.Manifest {
		manifest, err := newManifest(outDir, files)
		if err != nil {
			return err
		}
		if err := manifest.write(filepath.Join(outDir, manifestName)); err != nil {
			return err
		}
		p.mu.Lock()
		p.manifest = manifest
		p.mu.Unlock()
	}

	return nil
}

// LoadScripts returns the ordered list of script URLs needed for the given entrypoint
// and the main entrypoint URL
func (p *Pipeline) LoadScripts(entryPointPath string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.loadScripts(entryPointPath)
}

func (p *Pipeline) loadScripts(entryPointPath string) ([]string, string, error) {
	if p.metadata == nil {
		return nil, "", ErrNotBuilt
	}

	scripts := []string{}
	visited := make(map[string]bool)

	// Find the output file for this entrypoint
	for outputPath, info := range p.metadata.Outputs {
		if info.EntryPoint == entryPointPath && strings.HasSuffix(outputPath, ".js") {
			entrypoint := p.url(outputPath)
			scripts = append(scripts, entrypoint)
			visited[outputPath] = true
			p.addDependencies(info, &scripts, visited)
			return scripts, entrypoint, nil
		}
	}

	return nil, "", errors.New("entrypoint not found in metadata")
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if imp.Kind == "dynamic-import" || visited[imp.Path] {
			continue
		}
		chunkInfo, exists := p.metadata.Outputs[imp.Path]
		if !exists {
			continue
		}
		visited[imp.Path] = true
		*scripts = append(*scripts, p.url(imp.Path))
		p.addDependencies(chunkInfo, scripts, visited)
	}
}

func (p *Pipeline) styles(entryPointPath string) []string {
	var styles []string
	for _, info := range p.metadata.Outputs {
		if info.EntryPoint == entryPointPath && info.CSSBundle != "" {
			styles = append(styles, p.url(info.CSSBundle))
		}
	}
	return styles
}

// url maps a metafile output path, relative to the working directory, to the
// URL it is served under.
func (p *Pipeline) url(outputPath string) string {
	rel, err := filepath.Rel(p.OutputDir(), filepath.Join(p.workDir, outputPath))
	if err != nil {
		rel = outputPath
	}
	public := p.bundle.Output.PublicPath
	if public != "" && !strings.HasSuffix(public, "/") {
		public += "/"
	}
	return public + filepath.ToSlash(rel)
}

// Handler serves the build output under the public path, preferring
// precompressed copies the client accepts. Unknown paths get index.html so
// client side routes resolve.
func (p *Pipeline) Handler() http.Handler {
	outDir := p.OutputDir()
	files := http.FileServer(http.Dir(outDir))
	prefix := strings.TrimSuffix(p.bundle.Output.PublicPath, "/")

	return http.StripPrefix(prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(outDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			if servePrecompressed(w, r, name) {
				return
			}
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(outDir, p.config.IndexName))
	}))
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
}
