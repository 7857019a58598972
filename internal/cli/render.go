package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cruciblehq/cruxgen/internal/paths"
	"github.com/cruciblehq/cruxgen/internal/recipe"
	"github.com/opencontainers/go-digest"
)

// Represents the 'cruxgen render' command.
type RenderCmd struct {
	RecipeFlags

	Format string `short:"f" help:"Output format (docker or singularity). Defaults to the settings file, then docker." placeholder:"FORMAT"`
	Output string `short:"o" help:"Write the build description to a file instead of stdout." type:"path" placeholder:"FILE"`
	Digest bool   `help:"Print the digest of the rendered text instead of the text itself."`
}

// Loads the recipe and renders it in the requested format.
func (c *RenderCmd) Run(ctx context.Context) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	format, err := recipe.ParseFormat(firstNonEmpty(c.Format, settings.Format, string(recipe.FormatDocker)))
	if err != nil {
		return err
	}

	r, err := c.load(settings)
	if err != nil {
		return err
	}

	text, err := r.Render(format)
	if err != nil {
		return err
	}

	dgst := digest.FromString(text)
	arch, _ := r.Params().Lookup(recipe.ParamArch)
	slog.Info("recipe rendered", "recipe", c.Recipe, "format", format, "arch", arch, "directives", r.Len(), "digest", dgst)

	if c.Output != "" {
		if err := writeOutput(c.Output, text); err != nil {
			return err
		}
	}

	if c.Digest {
		_, err = fmt.Fprintln(stdout, dgst)
		return err
	}
	if c.Output == "" {
		_, err = fmt.Fprint(stdout, text)
	}
	return err
}

// Writes text to path, creating parent directories.
func writeOutput(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), paths.DefaultDirMode); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), paths.DefaultFileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Debug("output written", "path", path, "bytes", len(text))
	return nil
}

// Returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
