package cli

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"

	"github.com/cruciblehq/cruxgen/internal"
	"github.com/cruciblehq/cruxgen/internal/loader"
	"github.com/cruciblehq/cruxgen/internal/paths"
	"github.com/cruciblehq/cruxgen/internal/recipe"
)

// Command input and output streams. Replaced in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

// Arguments shared by commands that load a recipe.
type RecipeFlags struct {
	Recipe   string            `arg:"" help:"Recipe file to load, or - for stdin." type:"existingfile"`
	Param    map[string]string `short:"p" help:"Pin a recipe parameter." placeholder:"NAME=VALUE"`
	Platform string            `help:"Target platform used to derive the arch parameter. Defaults to the host." placeholder:"OS/ARCH"`
}

// Loads the recipe named by the flags.
//
// Parameters are pinned from, in order of precedence, the command line, the
// settings file and the target platform. Includes are searched for in the
// directories given with --recipe-path, then those from the settings file,
// then the shared recipe directories. A recipe read from stdin resolves
// relative includes against the working directory.
func (f *RecipeFlags) load(settings *internal.Settings) (*recipe.Recipe, error) {
	params, err := pinnedParams(settings.Params, f.Param, f.Platform)
	if err != nil {
		return nil, err
	}

	opts := loader.Options{
		Params:     params,
		SearchPath: searchPath(RootCmd.RecipePath, settings.RecipePath, paths.RecipeDirs()),
	}

	slog.Debug("loading recipe", "path", f.Recipe, "arch", params[recipe.ParamArch], "search", opts.SearchPath)

	if f.Recipe != "-" {
		return loader.Load(f.Recipe, opts)
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe from stdin: %w", err)
	}
	dir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return loader.Parse(data, dir, opts)
}

// Merges pinned parameters. Flags win over settings. The arch parameter is
// derived from platform unless either source sets it.
func pinnedParams(settings, flags map[string]string, platform string) (map[string]string, error) {
	params := make(map[string]string, len(settings)+len(flags)+1)
	maps.Copy(params, settings)
	maps.Copy(params, flags)

	if _, ok := params[recipe.ParamArch]; !ok {
		arch, err := recipe.ArchFromPlatform(platform)
		if err != nil {
			return nil, err
		}
		params[recipe.ParamArch] = arch
	}
	return params, nil
}

// Concatenates include search directories, dropping empty entries.
func searchPath(groups ...[]string) []string {
	var dirs []string
	for _, g := range groups {
		for _, d := range g {
			if d != "" {
				dirs = append(dirs, d)
			}
		}
	}
	return dirs
}

// Loads the user settings file.
func loadSettings() (*internal.Settings, error) {
	return internal.LoadSettings(paths.ConfigFile())
}
