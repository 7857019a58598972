package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	appName = "cruxgen"

	// Subdirectory holding shared recipes under each data directory.
	recipesDir = "recipes"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the user settings file.
//
//	Linux:   $XDG_CONFIG_HOME/cruxgen/config.yml or ~/.config/cruxgen/config.yml
//	macOS:   ~/Library/Application Support/cruxgen/config.yml
func ConfigFile() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yml")
}

// Directories searched for included recipes, most specific first.
//
//	Linux:   $XDG_DATA_HOME/cruxgen/recipes, then each $XDG_DATA_DIRS/cruxgen/recipes
//	macOS:   ~/Library/Application Support/cruxgen/recipes, then /Library/Application Support/cruxgen/recipes
func RecipeDirs() []string {
	dirs := []string{filepath.Join(xdg.DataHome, appName, recipesDir)}
	for _, d := range xdg.DataDirs {
		dirs = append(dirs, filepath.Join(d, appName, recipesDir))
	}
	return dirs
}
