package recipe

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var paramNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Well-known parameter holding the target architecture.
const ParamArch = "arch"

// Named string values substituted into directives at render time.
//
// Each entry remembers the directive position at which it was first defined.
// A directive may only reference parameters defined at or before its own
// position.
type Params struct {
	values  map[string]string
	defined map[string]int
	order   []string
}

// Creates an empty [Params].
func NewParams() *Params {
	return &Params{
		values:  make(map[string]string),
		defined: make(map[string]int),
	}
}

// Inserts or overwrites a parameter. The first definition position is kept.
func (p *Params) set(name, value string, at int) error {
	if !paramNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidParameter, name)
	}
	if _, ok := p.defined[name]; !ok {
		p.defined[name] = at
		p.order = append(p.order, name)
	}
	p.values[name] = value
	return nil
}

// Returns the value of a parameter.
func (p *Params) Lookup(name string) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Returns parameter names in definition order.
func (p *Params) Names() []string {
	return slices.Clone(p.order)
}

// Returns the number of defined parameters.
func (p *Params) Len() int {
	return len(p.order)
}

// Returns the value of name as seen by the directive at index.
func (p *Params) at(name string, index int) (string, bool) {
	pos, ok := p.defined[name]
	if !ok || pos > index {
		return "", false
	}
	return p.values[name], true
}

// Substitutes parameter references for a single directive.
type expander struct {
	params *Params
	index  int
}

func (x *expander) expand(s string) (string, error) {
	var missing string
	out := scan(s, func(name string) string {
		v, ok := x.params.at(name, x.index)
		if !ok && missing == "" {
			missing = name
		}
		return v
	})
	if missing != "" {
		return "", &UndefinedParameterError{Name: missing, Index: x.index}
	}
	return out, nil
}

func (x *expander) expandAll(in []string) ([]string, error) {
	if in == nil {
		return nil, nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		v, err := x.expand(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Walks s, replacing each {name} reference with the result of fn.
//
// "{{" and "}}" produce literal braces. A brace following "$" starts shell
// parameter syntax and is copied as-is. Braces that do not enclose an
// identifier are literal.
func scan(s string, fn func(name string) string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '$' && i+1 < len(s) && s[i+1] == '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				b.WriteString(s[i:])
				return b.String()
			}
			b.WriteString(s[i : i+end+1])
			i += end
		case c == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end >= 0 && paramNamePattern.MatchString(s[i+1:i+1+end]) {
				b.WriteString(fn(s[i+1 : i+1+end]))
				i += end + 1
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
