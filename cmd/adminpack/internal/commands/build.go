package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/adminpack/internal/assets"
	"github.com/wolfeidau/adminpack/internal/bundler"
	"github.com/wolfeidau/adminpack/internal/logger"
)

type BuildCmd struct {
	BundleFlags `embed:""`

	Compress   bool `help:"write .gz and .zst copies of text outputs" default:"false" env:"ADMINPACK_COMPRESS"`
	NoManifest bool `help:"skip writing manifest.json" default:"false" env:"ADMINPACK_NO_MANIFEST"`
}

func (b *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	log.Logger = logger.Setup(globals.Debug)

	cfg, factory, err := b.configure(bundler.EnvProduction)
	if err != nil {
		return err
	}

	log.Info().
		Str("version", globals.Version).
		Str("env", string(cfg.Mode)).
		Str("app_dir", cfg.AppDir).
		Str("edition", string(cfg.Admin.Edition)).
		Msg("Starting build")

	pipeline, err := assets.New(b.assetsConfig(), cfg, factory)
	if err != nil {
		return fmt.Errorf("failed to create assets pipeline: %w", err)
	}

	report, err := pipeline.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build admin panel: %w", err)
	}

	if len(report.Errors) > 0 {
		log.Warn().Int("errors", len(report.Errors)).Msg("Build finished with errors")
		return nil
	}

	log.Info().
		Str("build_id", report.BuildID).
		Str("fingerprint", report.Fingerprint).
		Str("dest", pipeline.OutputDir()).
		Msg("Build complete")

	return nil
}

func (b *BuildCmd) assetsConfig() assets.Config {
	config := assets.DefaultConfig()
	config.Compress = b.Compress
	config.Manifest = !b.NoManifest
	config.Environ = os.Environ()
	return config
}
