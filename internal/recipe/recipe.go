package recipe

import (
	"fmt"
	"log/slog"
	"strings"
)

// An ordered sequence of directives plus the parameters they reference.
//
// A recipe is populated by [Recipe.Append], [Recipe.Resolve] and
// [Recipe.Include] in script order, then rendered. The first call to
// [Recipe.Render] freezes it. A recipe is owned by a single goroutine.
type Recipe struct {
	directives []Directive // Appended directives, in order.
	params     *Params     // Parameter table.
	frozen     bool        // Set by the first render.
}

// Creates an empty [Recipe].
func New() *Recipe {
	return &Recipe{params: NewParams()}
}

// Appends a directive to the end of the recipe.
//
// The directive is validated and cloned. A malformed directive is rejected
// with a [MalformedDirectiveError] and the recipe is left unchanged.
func (r *Recipe) Append(d Directive) error {
	if r.frozen {
		return ErrFrozen
	}
	if d == nil {
		return malformed(len(r.directives), "", "directive must not be nil")
	}
	if msg := d.check(); msg != "" {
		return malformed(len(r.directives), d.Kind(), "%s", msg)
	}

	slog.Debug("append directive", "index", len(r.directives), "kind", d.Kind())

	r.directives = append(r.directives, d.clone())
	return nil
}

// Binds a parameter for every directive appended from now on.
//
// Resolving an existing name overwrites its value.
func (r *Recipe) Resolve(name, value string) error {
	if r.frozen {
		return ErrFrozen
	}
	return r.params.set(name, value, len(r.directives))
}

// Appends all directives of another recipe and merges its parameters.
//
// This is plain concatenation. The included parameters keep their positions
// relative to the included directives. Directives appended afterwards may
// override included ones, and the later directive wins when the builder
// applies them.
func (r *Recipe) Include(other *Recipe) error {
	if r.frozen {
		return ErrFrozen
	}
	if other == nil || other == r {
		return &IncludeResolutionError{Path: "(self)", Err: fmt.Errorf("recipe cannot include itself")}
	}

	offset := len(r.directives)
	for _, name := range other.params.order {
		if err := r.params.set(name, other.params.values[name], offset+other.params.defined[name]); err != nil {
			return err
		}
	}
	for _, d := range other.directives {
		r.directives = append(r.directives, d.clone())
	}

	slog.Debug("included recipe", "offset", offset, "directives", len(other.directives), "params", other.params.Len())
	return nil
}

// Returns a copy of the directive sequence.
func (r *Recipe) Directives() []Directive {
	out := make([]Directive, len(r.directives))
	for i, d := range r.directives {
		out[i] = d.clone()
	}
	return out
}

// Returns the number of directives.
func (r *Recipe) Len() int {
	return len(r.directives)
}

// Returns the parameter table.
func (r *Recipe) Params() *Params {
	return r.params
}

// Renders the recipe into build-description text for the given format.
//
// Directives are visited in insertion order. Each one is interpolated,
// validated, lowered into primitive directives and emitted. Any error aborts
// the render and no text is returned. The recipe is frozen even when the
// render fails. Repeated renders produce identical output.
func (r *Recipe) Render(format Format) (string, error) {
	r.frozen = true

	t, err := newTarget(format)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i := range r.directives {
		steps, err := r.resolve(i)
		if err != nil {
			return "", err
		}
		for _, step := range steps {
			text, err := t.emit(i, step)
			if err != nil {
				return "", err
			}
			b.WriteString(text)
		}
	}

	slog.Debug("rendered recipe", "format", format, "directives", len(r.directives), "bytes", b.Len())
	return b.String(), nil
}

// Interpolates the directive at index, lowers it into primitive directives
// and validates them.
func (r *Recipe) resolve(index int) ([]Directive, error) {
	x := &expander{params: r.params, index: index}

	d, err := r.directives[index].interpolate(x)
	if err != nil {
		return nil, err
	}

	steps := []Directive{d}
	if tc, ok := d.(Toolchain); ok {
		lookup := func(name string) (string, bool) { return r.params.at(name, index) }
		if steps, err = tc.expand(index, lookup); err != nil {
			return nil, err
		}
	}

	for _, step := range steps {
		if err := validateResolved(index, step); err != nil {
			return nil, err
		}
	}
	return steps, nil
}

// Returns a short summary of the recipe, listing directive kinds in order.
func (r *Recipe) String() string {
	parts := make([]string, len(r.directives))
	for i, d := range r.directives {
		parts[i] = string(d.Kind())
	}
	return fmt.Sprintf("recipe[%s]", strings.Join(parts, " "))
}
