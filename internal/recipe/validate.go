package recipe

import (
	"path"
	"strings"

	"github.com/distribution/reference"
)

// Checks the fields that can only be judged after interpolation and
// lowering.
func validateResolved(index int, d Directive) error {
	if field, ok := multiline(d); ok {
		return malformed(index, d.Kind(), "%s must not contain a line break, list each line separately", field)
	}

	switch d := d.(type) {
	case BaseImage:
		if _, err := reference.ParseNormalizedNamed(d.Image); err != nil {
			return malformed(index, KindBaseImage, "invalid image reference %q: %v", d.Image, err)
		}
	case Copy:
		if !path.IsAbs(d.Dest) {
			return malformed(index, KindCopy, "copy destination %q must be absolute", d.Dest)
		}
	case Workdir:
		if !path.IsAbs(d.Path) {
			return malformed(index, KindWorkdir, "workdir %q must be absolute", d.Path)
		}
	}
	return nil
}

// Names a directive field and its values.
type field struct {
	name   string
	values []string
}

// Returns the name of the first field holding a line break. Every emitted
// instruction is a single logical line.
func multiline(d Directive) (string, bool) {
	var fields []field
	switch d := d.(type) {
	case BaseImage:
		fields = []field{{"image", []string{d.Image}}}
	case Packages:
		fields = []field{{"package name", d.Names}, {"repository", d.Repositories}, {"key", d.Keys}}
	case Shell:
		fields = []field{{"command", d.Commands}}
	case Env:
		values := make([]string, len(d.Variables))
		for i, v := range d.Variables {
			values[i] = v.Value
		}
		fields = []field{{"environment value", values}}
	case Copy:
		fields = []field{{"copy source", []string{d.Source}}, {"copy destination", []string{d.Dest}}}
	case Workdir:
		fields = []field{{"workdir", []string{d.Path}}}
	case RunScript:
		fields = []field{{"command", d.Commands}}
	}

	for _, f := range fields {
		for _, v := range f.values {
			if strings.ContainsAny(v, "\r\n") {
				return f.name, true
			}
		}
	}
	return "", false
}
