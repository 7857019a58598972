// Package loader reads recipe files and builds [recipe.Recipe] values.
//
// A recipe file is a YAML document with optional "include", "params" and
// "steps" keys. Each step is a single-key mapping naming the directive
// ("baseimage", "packages", "gnu", "llvm", "cmake", "boost", "shell",
// "environment", "copy", "workdir", "runscript") or a composition statement
// ("include", "params"). Steps are appended in file order.
//
// Includes are resolved relative to the including file first, then against
// the search path. Each included file is loaded into its own recipe and
// concatenated at the include position. Cycles and missing files are
// reported as [recipe.IncludeResolutionError].
//
// Pinned parameters are resolved before anything else in every file and
// cannot be overwritten by the files themselves. They carry command-line
// overrides and the injected target architecture.
//
// Example usage:
//
//	r, err := loader.Load("ci/recipe_lab.yml", loader.Options{
//	    Params:     map[string]string{"arch": "x86_64"},
//	    SearchPath: paths.RecipeDirs(),
//	})
//	if err != nil {
//	    return err
//	}
package loader
