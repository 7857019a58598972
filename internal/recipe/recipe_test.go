package recipe

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Builds a recipe from parameters and directives, failing the test on error.
func build(t *testing.T, params [][2]string, directives ...Directive) *Recipe {
	t.Helper()
	r := New()
	for _, p := range params {
		if err := r.Resolve(p[0], p[1]); err != nil {
			t.Fatalf("Resolve(%q): %v", p[0], err)
		}
	}
	for _, d := range directives {
		if err := r.Append(d); err != nil {
			t.Fatalf("Append(%v): %v", d, err)
		}
	}
	return r
}

func render(t *testing.T, r *Recipe) string {
	t.Helper()
	out, err := r.Render(FormatDocker)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out
}

func TestInterpolationScenario(t *testing.T) {
	r := build(t,
		[][2]string{{"nvhpc_ver", "23.5"}, {"arch", "x86_64"}},
		BaseImage{Image: "nvcr.io/nvidia/nvhpc:{nvhpc_ver}-devel-cuda12.1-ubuntu22.04"},
		EnvOf("MPLCONFIGDIR", "/tmp/matplotlib"),
	)

	want := "FROM nvcr.io/nvidia/nvhpc:23.5-devel-cuda12.1-ubuntu22.04\n" +
		"ENV MPLCONFIGDIR=/tmp/matplotlib\n"

	if diff := cmp.Diff(want, render(t, r)); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderDeterministic(t *testing.T) {
	r := build(t,
		[][2]string{{"llvm_ver", "17"}, {"arch", "aarch64"}},
		BaseImage{Image: "ubuntu:22.04"},
		Toolchain{Family: ToolchainLLVM, Version: "{llvm_ver}", Options: map[string]string{"upstream": "true", "toolset": "true", "extra_tools": "true"}},
		Toolchain{Family: ToolchainCMake, Version: "3.24.2", Options: map[string]string{"eula": "true"}},
		EnvOf("B", "2", "A", "1", "LD_LIBRARY_PATH", "/usr/lib/llvm-{llvm_ver}/lib:$LD_LIBRARY_PATH"),
	)

	first := render(t, r)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, render(t, r)); diff != "" {
			t.Fatalf("render %d differs (-first +got):\n%s", i+2, diff)
		}
	}
}

func TestRenderUndefinedParameter(t *testing.T) {
	r := build(t,
		[][2]string{{"nvhpc_ver", "23.5"}},
		BaseImage{Image: "nvcr.io/nvidia/nvhpc:{nvhpc_ver}-devel-cuda12.1-ubuntu22.04"},
		Shell{Commands: []string{"cd /opt/nvidia/hpc_sdk/Linux_{arch}/{nvhpc_ver}/compilers/bin/"}},
	)

	out, err := r.Render(FormatDocker)
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}

	var undef *UndefinedParameterError
	if !errors.As(err, &undef) {
		t.Fatalf("err = %v, want UndefinedParameterError", err)
	}
	if undef.Name != "arch" || undef.Index != 1 {
		t.Fatalf("error = %+v, want arch at index 1", undef)
	}
	if !errors.Is(err, ErrUndefinedParameter) {
		t.Fatal("error does not match ErrUndefinedParameter")
	}
}

func TestParameterResolvedAfterUse(t *testing.T) {
	r := New()
	if err := r.Append(Workdir{Path: "/opt/{dir}"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Resolve("dir", "labs"); err != nil {
		t.Fatal(err)
	}
	if err := r.Append(Workdir{Path: "/srv/{dir}"}); err != nil {
		t.Fatal(err)
	}

	_, err := r.Render(FormatDocker)
	var undef *UndefinedParameterError
	if !errors.As(err, &undef) || undef.Name != "dir" || undef.Index != 0 {
		t.Fatalf("err = %v, want undefined dir at index 0", err)
	}
}

func TestParameterOverwrite(t *testing.T) {
	r := build(t, [][2]string{{"v", "1"}}, Workdir{Path: "/opt/{v}"})
	if err := r.Resolve("v", "2"); err != nil {
		t.Fatal(err)
	}

	if got := render(t, r); got != "WORKDIR /opt/2\n" {
		t.Fatalf("render = %q, want overwritten value", got)
	}
}

func TestResolveInvalidName(t *testing.T) {
	for _, name := range []string{"", "1abc", "a-b", "a b"} {
		if err := New().Resolve(name, "x"); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("Resolve(%q) err = %v, want ErrInvalidParameter", name, err)
		}
	}
}

func TestAppendMalformed(t *testing.T) {
	tests := []struct {
		name string
		d    Directive
	}{
		{"nil", nil},
		{"empty image", BaseImage{}},
		{"blank image", BaseImage{Image: "  "}},
		{"empty packages", Packages{}},
		{"empty package name", Packages{Names: []string{"git", ""}}},
		{"empty repository", Packages{Names: []string{"git"}, Repositories: []string{""}}},
		{"unknown manager", Packages{Names: []string{"git"}, Manager: "pacman"}},
		{"unknown toolchain", Toolchain{Family: "intel", Version: "2024"}},
		{"empty version", Toolchain{Family: ToolchainGNU}},
		{"unknown option", Toolchain{Family: ToolchainGNU, Version: "12", Options: map[string]string{"upstream": "true"}}},
		{"non-boolean option", Toolchain{Family: ToolchainCMake, Version: "3.24.2", Options: map[string]string{"eula": "maybe"}}},
		{"empty shell", Shell{}},
		{"empty command", Shell{Commands: []string{"ls", ""}}},
		{"empty env", Env{}},
		{"invalid env name", EnvOf("1X", "y")},
		{"duplicate env name", EnvOf("X", "1", "X", "2")},
		{"empty copy source", Copy{Dest: "/x"}},
		{"empty copy dest", Copy{Source: "x"}},
		{"empty workdir", Workdir{}},
		{"empty runscript", RunScript{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := build(t, nil, BaseImage{Image: "ubuntu:22.04"})
			err := r.Append(tt.d)

			var mal *MalformedDirectiveError
			if !errors.As(err, &mal) {
				t.Fatalf("err = %v, want MalformedDirectiveError", err)
			}
			if mal.Index != 1 {
				t.Fatalf("index = %d, want 1", mal.Index)
			}
			if r.Len() != 1 {
				t.Fatalf("len = %d, want 1 after rejected append", r.Len())
			}
		})
	}
}

func TestRenderMalformedAfterInterpolation(t *testing.T) {
	tests := []struct {
		name string
		d    Directive
		kind Kind
	}{
		{"invalid image", BaseImage{Image: "Not A Reference"}, KindBaseImage},
		{"relative copy dest", Copy{Source: "labs/", Dest: "{dir}/labs"}, KindCopy},
		{"relative workdir", Workdir{Path: "{dir}"}, KindWorkdir},
		{"bad boost version", Toolchain{Family: ToolchainBoost, Version: "1.83"}, KindToolchain},
		{"multi-line shell command", Shell{Commands: []string{"echo one\necho two"}}, KindShell},
		{"line break in workdir", Workdir{Path: "/labs\nRUN rm -rf /"}, KindWorkdir},
		{"line break in image", BaseImage{Image: "ubuntu:22.04\nRUN id"}, KindBaseImage},
		{"line break in copy source", Copy{Source: "a\rb", Dest: "/b"}, KindCopy},
		{"line break in environment value", EnvOf("A", "1\n2"), KindEnv},
		{"line break in run script", RunScript{Commands: []string{"make\nrun"}}, KindRunScript},
		{"line break in lowered toolchain", Toolchain{Family: ToolchainLLVM, Version: "17\nRUN id"}, KindPackages},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := build(t, [][2]string{{"dir", "labs"}}, tt.d)
			out, err := r.Render(FormatDocker)

			var mal *MalformedDirectiveError
			if !errors.As(err, &mal) {
				t.Fatalf("err = %v, want MalformedDirectiveError", err)
			}
			if mal.Kind != tt.kind || mal.Index != 0 {
				t.Fatalf("error = %+v, want kind %s at index 0", mal, tt.kind)
			}
			if out != "" {
				t.Fatalf("expected no output, got %q", out)
			}
		})
	}
}

func TestRenderConcatenation(t *testing.T) {
	params := [][2]string{{"gcc_ver", "12"}, {"arch", "x86_64"}}
	directives := []Directive{
		Packages{Names: []string{"python3", "git"}},
		Toolchain{Family: ToolchainGNU, Version: "{gcc_ver}", Options: map[string]string{"extra_repository": "true"}},
		Shell{Commands: []string{"set -ex", "pip install numpy"}},
		EnvOf("OMPI_MCA_coll_hcoll_enable", "0"),
		Copy{Source: "include/cartesian_product.hpp", Dest: "/usr/include/cartesian_product.hpp"},
	}

	whole := render(t, build(t, params, directives...))

	var parts strings.Builder
	for _, d := range directives {
		parts.WriteString(render(t, build(t, params, d)))
	}

	if diff := cmp.Diff(parts.String(), whole); diff != "" {
		t.Fatalf("render is not the concatenation of its parts (-parts +whole):\n%s", diff)
	}
}

func TestIncludeConcatenation(t *testing.T) {
	base := build(t,
		[][2]string{{"nvhpc_ver", "23.5"}},
		BaseImage{Image: "nvcr.io/nvidia/nvhpc:{nvhpc_ver}-devel-cuda12.1-ubuntu22.04"},
		Shell{Commands: []string{"ln -sf /src/include /usr/include/labs"}},
		Copy{Source: "include/", Dest: "/usr/include/labs"},
	)
	baseText := render(t, build(t,
		[][2]string{{"nvhpc_ver", "23.5"}},
		base.Directives()...,
	))

	extra := []Directive{
		Copy{Source: "labs/include/", Dest: "/usr/include/labs"},
		Workdir{Path: "/labs/"},
		RunScript{Commands: []string{`jupyter-lab --no-browser --allow-root --ip=0.0.0.0 --port=8888 --NotebookApp.token="" --notebook-dir=/labs`}},
	}

	lab := New()
	if err := lab.Include(base); err != nil {
		t.Fatalf("Include: %v", err)
	}
	for _, d := range extra {
		if err := lab.Append(d); err != nil {
			t.Fatal(err)
		}
	}

	wantSeq := append(base.Directives(), extra...)
	if diff := cmp.Diff(wantSeq, lab.Directives()); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}

	got := render(t, lab)
	extraText := render(t, build(t, nil, extra...))
	if diff := cmp.Diff(baseText+extraText, got); diff != "" {
		t.Fatalf("include render mismatch (-want +got):\n%s", diff)
	}

	// Both copies are emitted; the builder applies the later one last.
	first := strings.Index(got, "COPY include/ /usr/include/labs\n")
	second := strings.Index(got, "COPY labs/include/ /usr/include/labs\n")
	if first < 0 || second < 0 || second < first {
		t.Fatalf("expected both copies in order, got:\n%s", got)
	}
	if src := lastCopySource(lab, "/usr/include/labs"); src != "labs/include/" {
		t.Fatalf("effective source = %q, want labs/include/", src)
	}
}

// Returns the source of the last copy to dest, as a builder would observe it.
func lastCopySource(r *Recipe, dest string) string {
	var src string
	for _, d := range r.Directives() {
		if c, ok := d.(Copy); ok && c.Dest == dest {
			src = c.Source
		}
	}
	return src
}

func TestIncludeParameterPositions(t *testing.T) {
	base := New()
	base.Append(Workdir{Path: "/a"})
	base.Resolve("late", "x")
	base.Append(Workdir{Path: "/{late}"})

	r := New()
	r.Append(Workdir{Path: "/root"})
	if err := r.Include(base); err != nil {
		t.Fatal(err)
	}

	if got := render(t, r); got != "WORKDIR /root\nWORKDIR /a\nWORKDIR /x\n" {
		t.Fatalf("render = %q", got)
	}

	early := New()
	early.Append(Workdir{Path: "/{late}"})
	if err := early.Include(base); err != nil {
		t.Fatal(err)
	}
	if _, err := early.Render(FormatDocker); !errors.Is(err, ErrUndefinedParameter) {
		t.Fatalf("err = %v, want ErrUndefinedParameter", err)
	}
}

func TestIncludeSelf(t *testing.T) {
	r := New()
	if err := r.Include(r); !errors.Is(err, ErrIncludeResolution) {
		t.Fatalf("err = %v, want ErrIncludeResolution", err)
	}
}

func TestFrozenAfterRender(t *testing.T) {
	r := build(t, nil, BaseImage{Image: "ubuntu:22.04"})
	render(t, r)

	if !r.frozen {
		t.Fatal("recipe not frozen after render")
	}
	if err := r.Append(Workdir{Path: "/x"}); !errors.Is(err, ErrFrozen) {
		t.Fatalf("Append err = %v, want ErrFrozen", err)
	}
	if err := r.Resolve("x", "y"); !errors.Is(err, ErrFrozen) {
		t.Fatalf("Resolve err = %v, want ErrFrozen", err)
	}
	if err := r.Include(New()); !errors.Is(err, ErrFrozen) {
		t.Fatalf("Include err = %v, want ErrFrozen", err)
	}
}

func TestAppendClonesDirective(t *testing.T) {
	cmds := []string{"echo one"}
	opts := map[string]string{"eula": "true"}
	r := build(t, [][2]string{{"arch", "x86_64"}},
		Shell{Commands: cmds},
		Toolchain{Family: ToolchainCMake, Version: "3.24.2", Options: opts},
	)

	cmds[0] = "echo mutated"
	opts["eula"] = "false"

	got := render(t, r)
	if !strings.Contains(got, "echo one") || strings.Contains(got, "mutated") {
		t.Fatalf("shell directive was mutated:\n%s", got)
	}
	if !strings.Contains(got, "cmake-3.24.2-linux-x86_64.sh") {
		t.Fatalf("toolchain options were mutated:\n%s", got)
	}
}

func TestString(t *testing.T) {
	r := build(t, nil, BaseImage{Image: "ubuntu:22.04"}, Workdir{Path: "/x"})
	if got := r.String(); got != "recipe[baseimage workdir]" {
		t.Fatalf("String() = %q", got)
	}
}
