package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/cruciblehq/cruxgen/internal/recipe"
	"gopkg.in/yaml.v3"
)

// Controls how recipe files are loaded.
type Options struct {
	Params     map[string]string // Pinned parameters, resolved first and never overwritten.
	SearchPath []string          // Directories searched for includes after the including file's directory.
}

// Top-level layout of a recipe file.
type document struct {
	Include stringList  `yaml:"include"`
	Params  yaml.Node   `yaml:"params"`
	Steps   []yaml.Node `yaml:"steps"`
}

// Loads a recipe file and everything it includes.
func Load(path string, opts Options) (*recipe.Recipe, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	l := &loader{opts: opts}
	r, err := l.load(abs, data)
	if err != nil {
		var inc *recipe.IncludeResolutionError
		if errors.As(err, &inc) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}

	slog.Debug("recipe loaded", "path", path, "directives", r.Len(), "params", r.Params().Names())
	return r, nil
}

// Parses recipe text read from somewhere other than a file, such as stdin.
// Includes are resolved relative to dir.
func Parse(data []byte, dir string, opts Options) (*recipe.Recipe, error) {
	l := &loader{opts: opts}
	r, err := l.load(filepath.Join(dir, "(inline)"), data)
	if err != nil {
		var inc *recipe.IncludeResolutionError
		if errors.As(err, &inc) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return r, nil
}

// Holds the state of one load, including the chain of files being loaded
// for cycle detection.
type loader struct {
	opts  Options
	chain []string
}

// Builds a recipe from the contents of the file at path.
func (l *loader) load(path string, data []byte) (*recipe.Recipe, error) {
	l.chain = append(l.chain, path)
	defer func() { l.chain = l.chain[:len(l.chain)-1] }()

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if doc.Include == nil && doc.Params.Kind == 0 && len(doc.Steps) == 0 {
		return nil, fmt.Errorf("%w: recipe is empty", ErrInvalidStep)
	}

	r := recipe.New()
	if err := l.pin(r); err != nil {
		return nil, err
	}

	f := &file{loader: l, recipe: r, dir: filepath.Dir(path)}

	for _, name := range doc.Include {
		if err := f.include(name); err != nil {
			return nil, err
		}
	}
	if doc.Params.Kind != 0 {
		if err := f.params(&doc.Params); err != nil {
			return nil, err
		}
	}
	for i := range doc.Steps {
		if err := f.step(&doc.Steps[i]); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Resolves the pinned parameters in name order.
func (l *loader) pin(r *recipe.Recipe) error {
	names := make([]string, 0, len(l.opts.Params))
	for name := range l.opts.Params {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := r.Resolve(name, l.opts.Params[name]); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) pinned(name string) bool {
	_, ok := l.opts.Params[name]
	return ok
}

// Loads an included recipe by name, relative to dir.
func (l *loader) loadInclude(dir, name string) (*recipe.Recipe, error) {
	chain := slices.Clone(l.chain)

	path, err := l.locate(dir, name)
	if err != nil {
		return nil, &recipe.IncludeResolutionError{Path: name, Chain: chain, Err: err}
	}
	if slices.Contains(l.chain, path) {
		return nil, &recipe.IncludeResolutionError{Path: path, Chain: chain, Err: ErrCycle}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &recipe.IncludeResolutionError{Path: path, Chain: chain, Err: err}
	}

	slog.Debug("including recipe", "path", path, "depth", len(l.chain))

	r, err := l.load(path, data)
	if err != nil {
		var inc *recipe.IncludeResolutionError
		if errors.As(err, &inc) {
			return nil, err
		}
		return nil, &recipe.IncludeResolutionError{Path: path, Chain: chain, Err: err}
	}
	return r, nil
}

// Returns the absolute path of the first existing candidate for an include.
func (l *loader) locate(dir, name string) (string, error) {
	var candidates []string
	if filepath.IsAbs(name) {
		candidates = []string{name}
	} else {
		candidates = append(candidates, filepath.Join(dir, name))
		for _, d := range l.opts.SearchPath {
			candidates = append(candidates, filepath.Join(d, name))
		}
	}

	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil || info.IsDir() {
			continue
		}
		return filepath.Abs(c)
	}
	return "", ErrNotFound
}

// A scalar or a sequence of scalars.
type stringList []string

func (s *stringList) UnmarshalYAML(n *yaml.Node) error {
	list, err := scalars(n)
	if err != nil {
		return err
	}
	*s = list
	return nil
}
