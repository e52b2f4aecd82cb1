package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/adminpack/internal/bundler"
	"gopkg.in/yaml.v3"
)

// ConfigCmd prints the configuration a build would run with.
type ConfigCmd struct {
	BundleFlags `embed:""`
}

func (c *ConfigCmd) Run(ctx context.Context, globals *Globals) error {
	return c.print(os.Stdout)
}

func (c *ConfigCmd) print(out io.Writer) error {
	cfg, _, err := c.configure(bundler.EnvProduction)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}
