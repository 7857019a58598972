package cli

import (
	"context"
	"encoding/json"
	"fmt"
)

// Represents the 'cruxgen config' command.
//
// Prints the OCI image configuration (environment, working directory and
// command) that building the rendered recipe would produce.
type ConfigCmd struct {
	RecipeFlags
}

// Loads the recipe and prints its image configuration as JSON.
func (c *ConfigCmd) Run(ctx context.Context) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	r, err := c.load(settings)
	if err != nil {
		return err
	}

	cfg, err := r.ImageConfig()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode image configuration: %w", err)
	}

	_, err = fmt.Fprintln(stdout, string(data))
	return err
}
