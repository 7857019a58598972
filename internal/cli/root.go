package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/cruciblehq/cruxgen/internal"
)

// Represents the root command for cruxgen.
var RootCmd struct {
	Quiet      bool       `short:"q" help:"Suppress informational output."`
	Verbose    bool       `short:"v" help:"Enable verbose output."`
	Debug      bool       `short:"d" help:"Enable debug output."`
	RecipePath []string   `short:"I" name:"recipe-path" help:"Additional directory searched for included recipes." placeholder:"DIR"`
	Render     RenderCmd  `cmd:"" help:"Render a recipe into a build description."`
	Config     ConfigCmd  `cmd:"" help:"Print the OCI image configuration a recipe produces."`
	Version    VersionCmd `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Generates container build descriptions from declarative recipes.\n\nRecipes are YAML files listing base images, packages, toolchains, shell blocks, environment, copies and run scripts."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Level of the default logger, adjusted after flag parsing.
var logLevel = new(slog.LevelVar)

// Creates the program logger, writing text records to stderr.
//
// Verbose loggers include the source location of each record.
func NewLogger(verbose bool) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: verbose,
	})
	return slog.New(handler.WithGroup(internal.Name))
}

// Returns the level implied by the given flags.
func levelFor(debug, quiet bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	if quiet {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// Configures the global logger based on CLI flags.
func configureLogger() {
	debug := RootCmd.Debug || internal.IsDebug()
	quiet := RootCmd.Quiet || internal.IsQuiet()
	verbose := RootCmd.Verbose || internal.IsVerbose()

	internal.SetDebug(debug)
	internal.SetQuiet(quiet)
	internal.SetVerbose(verbose)

	logLevel.Set(levelFor(debug, quiet))
	slog.SetDefault(NewLogger(verbose))
}

// Seeds the logger level from build-time linker flags, before flags are
// parsed.
func init() {
	logLevel.Set(levelFor(internal.IsDebug(), internal.IsQuiet()))
}
