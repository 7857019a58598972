package loader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cruciblehq/cruxgen/internal/recipe"
	"gopkg.in/yaml.v3"
)

// Tracks the state of a single file while its steps are appended.
type file struct {
	loader  *loader
	recipe  *recipe.Recipe
	dir     string // Directory of the file, for relative includes.
	workdir string // Last workdir set in this file, for relative copy destinations.
}

// Decodes one step and applies it to the recipe.
func (f *file) step(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return stepError(n, "step must be a mapping with a single key")
	}
	key, value := n.Content[0].Value, n.Content[1]

	switch key {
	case "include":
		name, err := scalar(value)
		if err != nil {
			return stepError(value, "include: %v", err)
		}
		return f.include(name)
	case "params":
		return f.params(value)
	}

	d, err := f.directive(key, value)
	if err != nil {
		return err
	}
	if err := f.recipe.Append(d); err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	return nil
}

// Decodes the directive named by key from value.
func (f *file) directive(key string, value *yaml.Node) (recipe.Directive, error) {
	switch key {
	case "baseimage":
		image, err := scalar(value)
		if err != nil {
			return nil, stepError(value, "baseimage: %v", err)
		}
		return recipe.BaseImage{Image: image}, nil

	case "packages":
		return decodePackages(value)

	case "gnu", "llvm", "cmake", "boost":
		return decodeToolchain(recipe.ToolchainKind(key), value)

	case "shell":
		cmds, err := scalars(value)
		if err != nil {
			return nil, stepError(value, "shell: %v", err)
		}
		return recipe.Shell{Commands: cmds}, nil

	case "environment", "env":
		vars, err := orderedMap(value)
		if err != nil {
			return nil, stepError(value, "%s: %v", key, err)
		}
		env := recipe.Env{}
		for _, kv := range vars {
			env.Variables = append(env.Variables, recipe.Variable{Name: kv[0], Value: kv[1]})
		}
		return env, nil

	case "copy":
		return f.decodeCopy(value)

	case "workdir":
		dir, err := scalar(value)
		if err != nil {
			return nil, stepError(value, "workdir: %v", err)
		}
		f.workdir = dir
		return recipe.Workdir{Path: dir}, nil

	case "runscript":
		cmds, err := scalars(value)
		if err != nil {
			return nil, stepError(value, "runscript: %v", err)
		}
		return recipe.RunScript{Commands: cmds}, nil
	}

	return nil, stepError(value, "unknown step %q", key)
}

// Loads an include and concatenates it at the current position.
func (f *file) include(name string) error {
	sub, err := f.loader.loadInclude(f.dir, name)
	if err != nil {
		return err
	}
	return f.recipe.Include(sub)
}

// Resolves a mapping of parameters in document order. Pinned parameters are
// left untouched.
func (f *file) params(n *yaml.Node) error {
	pairs, err := orderedMap(n)
	if err != nil {
		return stepError(n, "params: %v", err)
	}
	for _, kv := range pairs {
		if f.loader.pinned(kv[0]) {
			continue
		}
		if err := f.recipe.Resolve(kv[0], kv[1]); err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
	}
	return nil
}

// Accepts either a list of package names or the long form.
func decodePackages(n *yaml.Node) (recipe.Directive, error) {
	if n.Kind == yaml.SequenceNode {
		names, err := scalars(n)
		if err != nil {
			return nil, stepError(n, "packages: %v", err)
		}
		return recipe.Packages{Names: names}, nil
	}

	var spec struct {
		Names        []string `yaml:"names"`
		Repositories []string `yaml:"repositories"`
		Keys         []string `yaml:"keys"`
		Manager      string   `yaml:"manager"`
	}
	if err := checkKeys(n, "names", "repositories", "keys", "manager"); err != nil {
		return nil, stepError(n, "packages: %v", err)
	}
	if err := n.Decode(&spec); err != nil {
		return nil, stepError(n, "packages: %v", err)
	}
	return recipe.Packages{
		Names:        spec.Names,
		Repositories: spec.Repositories,
		Keys:         spec.Keys,
		Manager:      spec.Manager,
	}, nil
}

// Accepts a bare version or a mapping with "version" and kind-specific
// options.
func decodeToolchain(kind recipe.ToolchainKind, n *yaml.Node) (recipe.Directive, error) {
	if n.Kind == yaml.ScalarNode {
		return recipe.Toolchain{Family: kind, Version: n.Value}, nil
	}

	pairs, err := orderedMap(n)
	if err != nil {
		return nil, stepError(n, "%s: %v", kind, err)
	}

	tc := recipe.Toolchain{Family: kind}
	for _, kv := range pairs {
		if kv[0] == "version" {
			tc.Version = kv[1]
			continue
		}
		if tc.Options == nil {
			tc.Options = make(map[string]string)
		}
		tc.Options[kv[0]] = kv[1]
	}
	return tc, nil
}

// Accepts the "src dest" shorthand or a mapping with "src" and "dest". Both
// forms resolve a relative destination against the current workdir.
func (f *file) decodeCopy(n *yaml.Node) (recipe.Directive, error) {
	if n.Kind == yaml.ScalarNode {
		src, dest, err := parseCopy(n.Value, f.workdir)
		if err != nil {
			return nil, stepError(n, "%v", err)
		}
		return recipe.Copy{Source: src, Dest: dest}, nil
	}

	var spec struct {
		Src  string `yaml:"src"`
		Dest string `yaml:"dest"`
	}
	if err := checkKeys(n, "src", "dest"); err != nil {
		return nil, stepError(n, "copy: %v", err)
	}
	if err := n.Decode(&spec); err != nil {
		return nil, stepError(n, "copy: %v", err)
	}
	dest, err := resolveDest(spec.Dest, f.workdir)
	if err != nil {
		return nil, stepError(n, "copy: %v", err)
	}
	return recipe.Copy{Source: spec.Src, Dest: dest}, nil
}

// Returns the value of a scalar node.
func scalar(n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("expected a string")
	}
	return n.Value, nil
}

// Returns the values of a scalar or a sequence of scalars.
func scalars(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return []string{n.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: expected a string", c.Line)
			}
			out = append(out, c.Value)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a string or a list of strings")
}

// Returns the key/value pairs of a mapping of scalars in document order.
func orderedMap(n *yaml.Node) ([][2]string, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping")
	}
	out := make([][2]string, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: expected scalar key and value", k.Line)
		}
		out = append(out, [2]string{k.Value, v.Value})
	}
	return out, nil
}

// Rejects mapping keys outside allowed.
func checkKeys(n *yaml.Node, allowed ...string) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("expected a mapping")
	}
	for i := 0; i < len(n.Content); i += 2 {
		k := n.Content[i]
		if !slices.Contains(allowed, k.Value) {
			return fmt.Errorf("line %d: unknown field %q", k.Line, k.Value)
		}
	}
	return nil
}

func stepError(n *yaml.Node, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("line %d: %w: %s", n.Line, ErrInvalidStep, strings.TrimSpace(msg))
}
