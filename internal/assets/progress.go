package assets

import (
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
)

func progressPlugin(name string) api.Plugin {
	var (
		mu      sync.Mutex
		started time.Time
	)

	return api.Plugin{
		Name: name,
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				mu.Lock()
				started = time.Now()
				mu.Unlock()

				log.Info().Msg("Compiling admin panel")
				return api.OnStartResult{}, nil
			})

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				mu.Lock()
				elapsed := time.Since(started)
				mu.Unlock()

				log.Info().
					Dur("duration", elapsed).
					Int("outputs", len(result.OutputFiles)).
					Int("errors", len(result.Errors)).
					Int("warnings", len(result.Warnings)).
					Msg("Compiled admin panel")
				return api.OnEndResult{}, nil
			})
		},
	}
}
