// Package recipe accumulates container build steps and renders them into a
// build description.
//
// A [Recipe] is an append-only sequence of directives (base image, OS
// packages, toolchains, shell blocks, environment, copies, working directory
// and run script) plus a table of named parameters. Directive fields may
// reference parameters as {name}. A reference is valid only if the parameter
// was resolved before the directive was appended.
//
// Rendering visits the directives in order and emits the syntax of the
// selected [Format]. Toolchains are lowered into package, shell and
// environment steps first. The output is deterministic and all-or-nothing.
// The first render freezes the recipe.
//
// Recipes compose by concatenation. [Recipe.Include] appends another recipe's
// directives at the current position. Later directives may override earlier
// ones, and the builder sees the last one.
//
// Example usage:
//
//	r := recipe.New()
//	r.Resolve("nvhpc_ver", "23.5")
//	r.Append(recipe.BaseImage{Image: "nvcr.io/nvidia/nvhpc:{nvhpc_ver}-devel-cuda12.1-ubuntu22.04"})
//	r.Append(recipe.EnvOf("MPLCONFIGDIR", "/tmp/matplotlib"))
//
//	text, err := r.Render(recipe.FormatDocker)
//	if err != nil {
//	    return err
//	}
package recipe
