package recipe

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExpand(t *testing.T) {
	p := NewParams()
	p.set("nvhpc_ver", "23.5", 0)
	p.set("arch", "x86_64", 0)
	x := &expander{params: p, index: 0}

	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"/opt/nvidia/hpc_sdk/Linux_{arch}/{nvhpc_ver}/compilers", "/opt/nvidia/hpc_sdk/Linux_x86_64/23.5/compilers"},
		{"${HOME}/bin:$PATH", "${HOME}/bin:$PATH"},
		{"{{arch}}", "{arch}"},
		{"a }} b", "a } b"},
		{"cp -r range-v3/include/* /usr/include/", "cp -r range-v3/include/* /usr/include/"},
		{"{not a ref}", "{not a ref}"},
		{"{", "{"},
		{"${unterminated", "${unterminated"},
		{"awk '{print $1}'", "awk '{print $1}'"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := x.expand(tt.in)
			if err != nil {
				t.Fatalf("expand: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expand(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExpandDoesNotRescan(t *testing.T) {
	p := NewParams()
	p.set("a", "{b}", 0)
	x := &expander{params: p, index: 0}

	got, err := x.expand("{a}")
	if err != nil {
		t.Fatal(err)
	}
	if got != "{b}" {
		t.Fatalf("expand = %q, want {b}", got)
	}
}

func TestExpandUndefined(t *testing.T) {
	p := NewParams()
	p.set("late", "x", 3)

	tests := []struct {
		in    string
		index int
		name  string
	}{
		{"{missing}", 0, "missing"},
		{"{late}", 2, "late"},
	}

	for _, tt := range tests {
		x := &expander{params: p, index: tt.index}
		_, err := x.expand(tt.in)

		var undef *UndefinedParameterError
		if !errors.As(err, &undef) || undef.Name != tt.name || undef.Index != tt.index {
			t.Fatalf("expand(%q) err = %v, want undefined %s at %d", tt.in, err, tt.name, tt.index)
		}
	}

	x := &expander{params: p, index: 3}
	if got, err := x.expand("{late}"); err != nil || got != "x" {
		t.Fatalf("expand at definition index = %q, %v", got, err)
	}
}

func TestParamsOrder(t *testing.T) {
	p := NewParams()
	p.set("b", "1", 0)
	p.set("a", "2", 1)
	p.set("b", "3", 2)

	if diff := cmp.Diff([]string{"b", "a"}, p.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if v, _ := p.Lookup("b"); v != "3" {
		t.Fatalf("b = %q, want 3", v)
	}
	if _, ok := p.at("b", 0); !ok {
		t.Fatal("overwrite moved the definition position")
	}
}
