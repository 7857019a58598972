package recipe

import (
	"os"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Tracks the image configuration accumulated while walking a recipe.
//
// State flows linearly through the directives. A base image resets it, as a
// new FROM does for the builder. Environment values may reference variables
// set earlier, which are expanded the way the builder expands them. Unknown
// variables are kept literally since they come from the base image.
type imageState struct {
	base       string
	workdir    string
	names      []string
	env        map[string]string
	entrypoint []string
}

// Creates a new [imageState] with no settings.
func newImageState() *imageState {
	return &imageState{env: make(map[string]string)}
}

// Applies one primitive directive to the state.
func (s *imageState) apply(index int, d Directive) error {
	switch d := d.(type) {
	case BaseImage:
		*s = *newImageState()
		s.base = d.Image
	case Env:
		for _, v := range d.Variables {
			s.setenv(v.Name, os.Expand(v.Value, s.lookup))
		}
	case Workdir:
		s.workdir = d.Path
	case RunScript:
		argv, err := execForm(index, d.Commands)
		if err != nil {
			return err
		}
		s.entrypoint = argv
	}
	return nil
}

func (s *imageState) setenv(name, value string) {
	if _, ok := s.env[name]; !ok {
		s.names = append(s.names, name)
	}
	s.env[name] = value
}

func (s *imageState) lookup(name string) string {
	if v, ok := s.env[name]; ok {
		return v
	}
	return "$" + name
}

// Formats the state as an OCI image configuration.
func (s *imageState) config() ocispec.ImageConfig {
	cfg := ocispec.ImageConfig{
		WorkingDir: s.workdir,
		Entrypoint: s.entrypoint,
	}
	for _, name := range s.names {
		cfg.Env = append(cfg.Env, name+"="+s.env[name])
	}
	if s.base != "" {
		cfg.Labels = map[string]string{ocispec.AnnotationBaseImageName: s.base}
	}
	return cfg
}

// Folds the recipe into the image configuration a builder would produce.
//
// Only the stage started by the last base image contributes. Rendering rules
// apply, so the same errors are reported as by [Recipe.Render].
func (r *Recipe) ImageConfig() (ocispec.ImageConfig, error) {
	state := newImageState()
	for i := range r.directives {
		steps, err := r.resolve(i)
		if err != nil {
			return ocispec.ImageConfig{}, err
		}
		for _, step := range steps {
			if err := state.apply(i, step); err != nil {
				return ocispec.ImageConfig{}, err
			}
		}
	}
	return state.config(), nil
}
