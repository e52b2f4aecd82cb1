package assets

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/adminpack/internal/bundler"
)

var errTypecheckFailed = errors.New("type check failed")

type checkResult struct {
	diagnostics []string
	skipped     bool
	err         error
}

// typeChecker runs tsc --noEmit against a fixed tsconfig.
type typeChecker struct {
	configFile string
	workDir    string
	environ    []string
}

func (c *typeChecker) binary() (string, bool) {
	local := filepath.Join(c.workDir, "node_modules", ".bin", "tsc")
	if _, err := os.Stat(local); err == nil {
		return local, true
	}
	if path, err := exec.LookPath("tsc"); err == nil {
		return path, true
	}
	return "", false
}

func (c *typeChecker) run(ctx context.Context) checkResult {
	bin, ok := c.binary()
	if !ok {
		return checkResult{skipped: true}
	}

	cmd := exec.CommandContext(ctx, bin, "--noEmit", "--pretty", "false", "-p", c.configFile)
	cmd.Dir = c.workDir
	if c.environ != nil {
		cmd.Env = c.environ
	}

	out, err := cmd.CombinedOutput()
	diagnostics := parseDiagnostics(out)
	if err != nil && len(diagnostics) == 0 {
		return checkResult{err: err}
	}
	if len(diagnostics) > 0 {
		return checkResult{diagnostics: diagnostics, err: errTypecheckFailed}
	}
	return checkResult{}
}

// parseDiagnostics returns the tsc error lines from its output.
func parseDiagnostics(out []byte) []string {
	var diagnostics []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, "error TS") {
			diagnostics = append(diagnostics, line)
		}
	}
	return diagnostics
}

func (r checkResult) log(configFile string) {
	switch {
	case r.skipped:
		log.Warn().Str("config", configFile).Msg("tsc not found, skipping type check")
	case len(r.diagnostics) > 0:
		for _, d := range r.diagnostics {
			log.Error().Str("diagnostic", d).Msg("Type error")
		}
	case r.err != nil:
		log.Error().Err(r.err).Msg("Type check failed to run")
	default:
		log.Info().Str("config", configFile).Msg("Type check passed")
	}
}

func (r checkResult) messages() []api.Message {
	if r.err == nil {
		return nil
	}
	if len(r.diagnostics) == 0 {
		return []api.Message{{PluginName: bundler.PluginTypecheck, Text: r.err.Error()}}
	}
	msgs := make([]api.Message, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		msgs = append(msgs, api.Message{PluginName: bundler.PluginTypecheck, Text: d})
	}
	return msgs
}

// typecheckPlugin checks types alongside each build. Async checks only log;
// otherwise type errors are added to the build result.
func (p *Pipeline) typecheckPlugin(descriptor bundler.Plugin) api.Plugin {
	configFile, _ := descriptor.Options["configFile"].(string)
	async, _ := descriptor.Options["async"].(bool)

	checker := &typeChecker{
		configFile: configFile,
		workDir:    p.workDir,
		environ:    p.config.Environ,
	}

	return api.Plugin{
		Name: descriptor.Name,
		Setup: func(build api.PluginBuild) {
			var (
				mu      sync.Mutex
				pending chan checkResult
			)

			build.OnStart(func() (api.OnStartResult, error) {
				ch := make(chan checkResult, 1)
				mu.Lock()
				pending = ch
				mu.Unlock()

				ctx := p.context()
				go func() {
					ch <- checker.run(ctx)
				}()
				return api.OnStartResult{}, nil
			})

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				mu.Lock()
				ch := pending
				mu.Unlock()
				if ch == nil {
					return api.OnEndResult{}, nil
				}

				if async {
					go func() {
						(<-ch).log(configFile)
					}()
					return api.OnEndResult{}, nil
				}

				res := <-ch
				res.log(configFile)
				return api.OnEndResult{Errors: res.messages()}, nil
			})
		},
	}
}
