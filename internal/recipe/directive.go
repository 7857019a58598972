package recipe

import (
	"maps"
	"regexp"
	"slices"
	"strings"
)

// Identifies a directive variant.
type Kind string

const (
	KindBaseImage Kind = "baseimage"
	KindPackages  Kind = "packages"
	KindToolchain Kind = "toolchain"
	KindShell     Kind = "shell"
	KindEnv       Kind = "environment"
	KindCopy      Kind = "copy"
	KindWorkdir   Kind = "workdir"
	KindRunScript Kind = "runscript"
)

// Package managers understood by [Packages].
const (
	ManagerApt = "apt"
	ManagerYum = "yum"
)

var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// A single build step of a recipe.
//
// The set of implementations is closed. Directives are cloned when appended
// to a [Recipe], so values held by the caller can be reused freely.
type Directive interface {
	Kind() Kind

	// Returns a description of the first missing or invalid field, or an
	// empty string if the directive is well-formed.
	check() string

	// Returns a deep copy.
	clone() Directive

	// Returns a copy with every parameter reference substituted.
	interpolate(x *expander) (Directive, error)
}

// Selects the image the build starts from.
type BaseImage struct {
	Image string
}

// Installs OS packages, optionally from extra repositories signed by extra
// keys.
type Packages struct {
	Names        []string
	Repositories []string
	Keys         []string
	Manager      string // apt (default) or yum.
}

// Runs a list of shell commands as one fail-fast layer.
type Shell struct {
	Commands []string
}

// A single environment variable binding.
type Variable struct {
	Name  string
	Value string
}

// Sets environment variables in the image. Order is preserved in the output.
type Env struct {
	Variables []Variable
}

// Copies a path from the build context into the image.
type Copy struct {
	Source string // Relative to the build context.
	Dest   string // Absolute path inside the image.
}

// Sets the working directory of the image.
type Workdir struct {
	Path string
}

// Sets the command run when the container starts.
type RunScript struct {
	Commands []string
}

func (BaseImage) Kind() Kind { return KindBaseImage }
func (Packages) Kind() Kind  { return KindPackages }
func (Shell) Kind() Kind     { return KindShell }
func (Env) Kind() Kind       { return KindEnv }
func (Copy) Kind() Kind      { return KindCopy }
func (Workdir) Kind() Kind   { return KindWorkdir }
func (RunScript) Kind() Kind { return KindRunScript }

func (d BaseImage) check() string {
	if strings.TrimSpace(d.Image) == "" {
		return "image must not be empty"
	}
	return ""
}

func (d Packages) check() string {
	if len(d.Names) == 0 {
		return "package list must not be empty"
	}
	if msg := checkNonEmpty("package name", d.Names); msg != "" {
		return msg
	}
	if msg := checkNonEmpty("repository", d.Repositories); msg != "" {
		return msg
	}
	if msg := checkNonEmpty("key", d.Keys); msg != "" {
		return msg
	}
	switch d.Manager {
	case "", ManagerApt, ManagerYum:
		return ""
	default:
		return "unknown package manager " + quote(d.Manager)
	}
}

func (d Shell) check() string {
	if len(d.Commands) == 0 {
		return "command list must not be empty"
	}
	return checkNonEmpty("command", d.Commands)
}

func (d Env) check() string {
	if len(d.Variables) == 0 {
		return "environment must not be empty"
	}
	seen := make(map[string]struct{}, len(d.Variables))
	for _, v := range d.Variables {
		if !envNamePattern.MatchString(v.Name) {
			return "invalid variable name " + quote(v.Name)
		}
		if _, ok := seen[v.Name]; ok {
			return "duplicate variable " + quote(v.Name)
		}
		seen[v.Name] = struct{}{}
	}
	return ""
}

func (d Copy) check() string {
	if strings.TrimSpace(d.Source) == "" {
		return "copy source must not be empty"
	}
	if strings.TrimSpace(d.Dest) == "" {
		return "copy destination must not be empty"
	}
	return ""
}

func (d Workdir) check() string {
	if strings.TrimSpace(d.Path) == "" {
		return "workdir must not be empty"
	}
	return ""
}

func (d RunScript) check() string {
	if len(d.Commands) == 0 {
		return "command list must not be empty"
	}
	return checkNonEmpty("command", d.Commands)
}

func (d BaseImage) clone() Directive { return d }
func (d Copy) clone() Directive      { return d }
func (d Workdir) clone() Directive   { return d }

func (d Packages) clone() Directive {
	return Packages{
		Names:        slices.Clone(d.Names),
		Repositories: slices.Clone(d.Repositories),
		Keys:         slices.Clone(d.Keys),
		Manager:      d.Manager,
	}
}

func (d Shell) clone() Directive     { return Shell{Commands: slices.Clone(d.Commands)} }
func (d Env) clone() Directive       { return Env{Variables: slices.Clone(d.Variables)} }
func (d RunScript) clone() Directive { return RunScript{Commands: slices.Clone(d.Commands)} }

func (d BaseImage) interpolate(x *expander) (Directive, error) {
	image, err := x.expand(d.Image)
	return BaseImage{Image: image}, err
}

func (d Packages) interpolate(x *expander) (Directive, error) {
	out := Packages{Manager: d.Manager}
	var err error
	if out.Names, err = x.expandAll(d.Names); err != nil {
		return nil, err
	}
	if out.Repositories, err = x.expandAll(d.Repositories); err != nil {
		return nil, err
	}
	if out.Keys, err = x.expandAll(d.Keys); err != nil {
		return nil, err
	}
	return out, nil
}

func (d Shell) interpolate(x *expander) (Directive, error) {
	cmds, err := x.expandAll(d.Commands)
	return Shell{Commands: cmds}, err
}

func (d Env) interpolate(x *expander) (Directive, error) {
	out := Env{Variables: make([]Variable, len(d.Variables))}
	for i, v := range d.Variables {
		value, err := x.expand(v.Value)
		if err != nil {
			return nil, err
		}
		out.Variables[i] = Variable{Name: v.Name, Value: value}
	}
	return out, nil
}

func (d Copy) interpolate(x *expander) (Directive, error) {
	src, err := x.expand(d.Source)
	if err != nil {
		return nil, err
	}
	dest, err := x.expand(d.Dest)
	if err != nil {
		return nil, err
	}
	return Copy{Source: src, Dest: dest}, nil
}

func (d Workdir) interpolate(x *expander) (Directive, error) {
	p, err := x.expand(d.Path)
	return Workdir{Path: p}, err
}

func (d RunScript) interpolate(x *expander) (Directive, error) {
	cmds, err := x.expandAll(d.Commands)
	return RunScript{Commands: cmds}, err
}

// Builds an [Env] from an ordered list of alternating names and values.
//
// Panics if given an odd number of arguments.
func EnvOf(pairs ...string) Env {
	if len(pairs)%2 != 0 {
		panic("recipe: EnvOf requires name/value pairs")
	}
	env := Env{Variables: make([]Variable, 0, len(pairs)/2)}
	for i := 0; i < len(pairs); i += 2 {
		env.Variables = append(env.Variables, Variable{Name: pairs[i], Value: pairs[i+1]})
	}
	return env
}

// Returns the manager, defaulting to apt.
func (d Packages) manager() string {
	if d.Manager == "" {
		return ManagerApt
	}
	return d.Manager
}

func checkNonEmpty(what string, values []string) string {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return what + " must not be empty"
		}
	}
	return ""
}

func quote(s string) string {
	return `"` + s + `"`
}

// Returns a copy of the toolchain options map.
func cloneOptions(opts map[string]string) map[string]string {
	if opts == nil {
		return nil
	}
	return maps.Clone(opts)
}
