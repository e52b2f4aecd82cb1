package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/adminpack/internal/assets"
	"github.com/wolfeidau/adminpack/internal/bundler"
	httpmiddleware "github.com/wolfeidau/adminpack/internal/http"
	"github.com/wolfeidau/adminpack/internal/logger"
)

type WatchCmd struct {
	BundleFlags `embed:""`

	Listen string `help:"serve the output on this address, e.g. localhost:4000" default:"" env:"ADMINPACK_LISTEN"`
}

func (w *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	log.Logger = logger.Setup(globals.Debug)

	cfg, factory, err := w.configure(bundler.EnvDevelopment)
	if err != nil {
		return err
	}

	pipeline, err := assets.New(assets.DefaultConfig(), cfg, factory)
	if err != nil {
		return fmt.Errorf("failed to create assets pipeline: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if w.Listen != "" {
		handler := httpmiddleware.RequestLogger(httpmiddleware.NoCache(pipeline.Handler()))
		srv := configureHTTPServer(w.Listen, handler)
		go func() {
			log.Info().Str("addr", w.Listen).Str("path", cfg.Output.PublicPath).Msg("Serving admin panel")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Server failed")
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown server")
			}
		}()
	}

	log.Info().
		Str("version", globals.Version).
		Str("env", string(cfg.Mode)).
		Str("app_dir", cfg.AppDir).
		Msg("Starting watch")

	if err := pipeline.Watch(ctx); err != nil {
		return fmt.Errorf("failed to watch admin panel: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Received interrupt signal, shutting down...")
	return nil
}
