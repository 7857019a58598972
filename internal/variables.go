package internal

import (
	"fmt"
	"runtime"
	"strings"
)

const (

	// Program name, used for logging and usage output.
	Name = "cruxgen"

	// Placeholder for build metadata that was not injected.
	undefined = "(undefined)"

	// Version string reported by builds made outside the release pipeline.
	localBuild = "(local)"

	// Branch whose builds carry no stage suffix.
	mainBranch = "main"
)

// Build metadata, injected with -ldflags "-X github.com/cruciblehq/cruxgen/internal.<name>=<value>".
var (
	version   = "" // Release version (e.g., "v0.4.1").
	stage     = "" // Git branch the release was cut from (e.g., "main").
	gitCommit = "" // Abbreviated commit hash.

	rawQuiet   = "false" // Whether to start in quiet mode.
	rawDebug   = "false" // Whether to start with debug logging.
	rawVerbose = "false" // Whether to start with verbose logging.
)

// Describes the running binary.
type BuildInfo struct {
	Version string // Normalised version without the "v" prefix.
	Stage   string // Lowercased branch name.
	Commit  string // Commit hash.
	Arch    string // GOARCH of the binary, not of the images it describes.
	Local   bool   // Whether any release metadata is missing.
}

// Returns metadata about the running binary.
func Info() BuildInfo {
	v := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(version)), "v")
	s := strings.ToLower(strings.TrimSpace(stage))
	c := strings.TrimSpace(gitCommit)

	return BuildInfo{
		Version: orUndefined(v),
		Stage:   orUndefined(s),
		Commit:  orUndefined(c),
		Arch:    runtime.GOARCH,
		Local:   v == "" || s == "" || c == "",
	}
}

// Returns a detailed version string.
//
// Local builds report "(local)". Release builds report
// "<version>[+<stage>] <commit> [<arch>]", omitting the stage for main.
func VersionString() string {
	info := Info()
	if info.Local {
		return localBuild
	}

	suffix := ""
	if info.Stage != mainBranch {
		suffix = "+" + info.Stage
	}
	return fmt.Sprintf("%s%s %s [%s]", info.Version, suffix, info.Commit, info.Arch)
}

func orUndefined(s string) string {
	if s == "" {
		return undefined
	}
	return s
}
