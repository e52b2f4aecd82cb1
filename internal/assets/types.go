package assets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/wolfeidau/adminpack/internal/bundler"
)

var (
	// ErrBuildFailed is returned when esbuild reports errors and the
	// configuration bails on the first error.
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNotBuilt is returned when metadata is requested before a build.
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
)

// EntryPoint is the virtual module bundling the configured entry list.
const (
	entryNamespace = "adminpack-entry"
	entryName      = "main"
	EntryPoint     = entryNamespace + ":" + entryName
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
	Bytes      int64        `json:"bytes"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Pipeline runs a bundle configuration through esbuild and post-processes
// the output.
type Pipeline struct {
	config   Config
	bundle   bundler.Config
	factory  *bundler.Factory
	workDir  string
	metadata *BuildMetadata
	manifest *Manifest
	mu       sync.RWMutex

	// ctx bounds background work started by plugins
	ctx context.Context
}

// New creates a new asset pipeline for the given bundle configuration. The
// factory is used for per-file rule selection and must be the one that
// produced bundle.
func New(config Config, bundle bundler.Config, factory *bundler.Factory) (*Pipeline, error) {
	if len(bundle.Entry) == 0 {
		return nil, errors.New("no entry points configured")
	}

	workDir, err := filepath.Abs(bundle.AppDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve app directory: %w", err)
	}

	if factory == nil {
		factory = bundler.New()
	}

	return &Pipeline{
		config:  config,
		bundle:  bundle,
		factory: factory,
		workDir: workDir,
		ctx:     context.Background(),
	}, nil
}

// OutputDir returns the absolute output directory.
func (p *Pipeline) OutputDir() string {
	return p.abs(p.bundle.Output.Path)
}

func (p *Pipeline) context() context.Context {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ctx
}

func (p *Pipeline) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.workDir, path)
}
