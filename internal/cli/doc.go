// Parses flags, configures logging and runs cruxgen subcommands.
//
// Global flags:
//
//	-q, --quiet          Suppress informational output.
//	-v, --verbose        Enable verbose output.
//	-d, --debug          Enable debug output.
//	-I, --recipe-path    Extra directory searched for included recipes (repeatable).
//
// Recipe commands (render, config) also accept:
//
//	-p, --param NAME=VALUE   Pin a recipe parameter (repeatable).
//	    --platform OS/ARCH   Target platform that determines the arch parameter.
//
// Flags override build-time defaults set via linker flags and the user
// settings file. After parsing, the global logger is rebuilt to reflect the
// final level and verbosity before the command runs.
package cli
