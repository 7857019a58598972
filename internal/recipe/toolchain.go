package recipe

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Identifies a toolchain family.
type ToolchainKind string

const (
	ToolchainGNU   ToolchainKind = "gnu"
	ToolchainLLVM  ToolchainKind = "llvm"
	ToolchainCMake ToolchainKind = "cmake"
	ToolchainBoost ToolchainKind = "boost"
)

const (
	defaultLLVMDistro  = "jammy"
	defaultBoostPrefix = "/usr/local/boost"
	alternativesPrio   = "30"
)

var boostVersionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Option value types per toolchain kind.
type optionType int

const (
	optBool optionType = iota
	optString
)

var toolchainOptions = map[ToolchainKind]map[string]optionType{
	ToolchainGNU: {
		"extra_repository": optBool,
		"fortran":          optBool,
	},
	ToolchainLLVM: {
		"upstream":    optBool,
		"extra_tools": optBool,
		"toolset":     optBool,
		"distro":      optString,
	},
	ToolchainCMake: {
		"eula": optBool,
	},
	ToolchainBoost: {
		"prefix":    optString,
		"libraries": optString,
	},
}

// Installs a compiler toolchain or build tool at a given version.
//
// Options are family-specific. Boolean options accept any value understood by
// [strconv.ParseBool].
type Toolchain struct {
	Family  ToolchainKind
	Version string
	Options map[string]string
}

func (Toolchain) Kind() Kind { return KindToolchain }

func (d Toolchain) check() string {
	allowed, ok := toolchainOptions[d.Family]
	if !ok {
		return "unknown toolchain " + quote(string(d.Family))
	}
	if strings.TrimSpace(d.Version) == "" {
		return string(d.Family) + " version must not be empty"
	}

	for _, name := range sortedKeys(d.Options) {
		typ, ok := allowed[name]
		if !ok {
			return fmt.Sprintf("unknown %s option %q", d.Family, name)
		}
		if typ == optBool {
			if _, err := strconv.ParseBool(d.Options[name]); err != nil {
				return fmt.Sprintf("%s option %q must be a boolean, got %q", d.Family, name, d.Options[name])
			}
		}
	}
	return ""
}

func (d Toolchain) clone() Directive {
	return Toolchain{Family: d.Family, Version: d.Version, Options: cloneOptions(d.Options)}
}

func (d Toolchain) interpolate(x *expander) (Directive, error) {
	version, err := x.expand(d.Version)
	if err != nil {
		return nil, err
	}
	out := Toolchain{Family: d.Family, Version: version}
	if d.Options != nil {
		out.Options = make(map[string]string, len(d.Options))
		for _, k := range sortedKeys(d.Options) {
			if out.Options[k], err = x.expand(d.Options[k]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func (d Toolchain) flag(name string) bool {
	v, _ := strconv.ParseBool(d.Options[name])
	return v
}

func (d Toolchain) flagDefault(name string, def bool) bool {
	if _, ok := d.Options[name]; !ok {
		return def
	}
	return d.flag(name)
}

func (d Toolchain) option(name, def string) string {
	if v := d.Options[name]; v != "" {
		return v
	}
	return def
}

// Lowers an interpolated toolchain into primitive directives.
//
// The lookup function resolves parameters the expansion depends on (the
// target architecture), honouring the directive's position.
func (d Toolchain) expand(index int, lookup func(string) (string, bool)) ([]Directive, error) {
	switch d.Family {
	case ToolchainGNU:
		return d.expandGNU(), nil
	case ToolchainLLVM:
		return d.expandLLVM(), nil
	case ToolchainCMake:
		return d.expandCMake(index, lookup)
	case ToolchainBoost:
		return d.expandBoost(index)
	}
	return nil, malformed(index, KindToolchain, "unknown toolchain %q", d.Family)
}

func (d Toolchain) expandGNU() []Directive {
	v := d.Version
	compilers := []string{"gcc", "g++"}
	if d.flagDefault("fortran", true) {
		compilers = append(compilers, "gfortran")
	}

	pkgs := Packages{}
	for _, c := range compilers {
		pkgs.Names = append(pkgs.Names, c+"-"+v)
	}
	if d.flag("extra_repository") {
		pkgs.Repositories = []string{"ppa:ubuntu-toolchain-r/test"}
	}

	return []Directive{pkgs, Shell{Commands: alternatives(compilers, v)}}
}

func (d Toolchain) expandLLVM() []Directive {
	v := d.Version
	distro := d.option("distro", defaultLLVMDistro)

	pkgs := Packages{Names: []string{"clang-" + v, "libomp-" + v + "-dev"}}
	if d.flag("extra_tools") {
		pkgs.Names = append(pkgs.Names, "clang-format-"+v, "clang-tidy-"+v)
	}
	if d.flag("toolset") {
		pkgs.Names = append(pkgs.Names, "libc++-"+v+"-dev", "libc++abi-"+v+"-dev", "lld-"+v, "lldb-"+v)
	}
	if d.flag("upstream") {
		pkgs.Keys = []string{"https://apt.llvm.org/llvm-snapshot.gpg.key"}
		pkgs.Repositories = []string{
			fmt.Sprintf("deb http://apt.llvm.org/%s/ llvm-toolchain-%s-%s main", distro, distro, v),
		}
	}

	tools := []string{"clang", "clang++"}
	if d.flag("extra_tools") {
		tools = append(tools, "clang-format", "clang-tidy")
	}
	if d.flag("toolset") {
		tools = append(tools, "lld", "lldb")
	}

	return []Directive{pkgs, Shell{Commands: alternatives(tools, v)}}
}

func (d Toolchain) expandCMake(index int, lookup func(string) (string, bool)) ([]Directive, error) {
	v := d.Version
	path := EnvOf("PATH", "/usr/local/bin:$PATH")

	if !d.flag("eula") {
		dir := "cmake-" + v
		tarball := dir + ".tar.gz"
		return []Directive{
			Packages{Names: []string{"libssl-dev", "make", "wget", "g++"}},
			Shell{Commands: []string{
				"mkdir -p /var/tmp",
				fmt.Sprintf("wget -q -nc --no-check-certificate -P /var/tmp https://github.com/Kitware/CMake/releases/download/v%s/%s", v, tarball),
				fmt.Sprintf("tar -x -f /var/tmp/%s -C /var/tmp -z", tarball),
				fmt.Sprintf("cd /var/tmp/%s", dir),
				"./bootstrap --prefix=/usr/local --parallel=$(nproc)",
				"make -j$(nproc)",
				"make install",
				fmt.Sprintf("rm -rf /var/tmp/%s /var/tmp/%s", dir, tarball),
			}},
			path,
		}, nil
	}

	arch, ok := lookup(ParamArch)
	if !ok {
		return nil, &UndefinedParameterError{Name: ParamArch, Index: index}
	}
	installer := fmt.Sprintf("cmake-%s-linux-%s.sh", v, arch)
	return []Directive{
		Packages{Names: []string{"make", "wget"}},
		Shell{Commands: []string{
			"mkdir -p /var/tmp",
			fmt.Sprintf("wget -q -nc --no-check-certificate -P /var/tmp https://github.com/Kitware/CMake/releases/download/v%s/%s", v, installer),
			"mkdir -p /usr/local",
			fmt.Sprintf("/bin/sh /var/tmp/%s --prefix=/usr/local --skip-license", installer),
			fmt.Sprintf("rm -rf /var/tmp/%s", installer),
		}},
		path,
	}, nil
}

func (d Toolchain) expandBoost(index int) ([]Directive, error) {
	v := d.Version
	if !boostVersionPattern.MatchString(v) {
		return nil, malformed(index, KindToolchain, "boost version %q must have the form X.Y.Z", v)
	}
	prefix := d.option("prefix", defaultBoostPrefix)
	dir := "boost_" + strings.ReplaceAll(v, ".", "_")
	tarball := dir + ".tar.bz2"

	bootstrap := "./bootstrap.sh --prefix=" + prefix
	if libs := d.option("libraries", ""); libs != "" {
		bootstrap += " --with-libraries=" + strings.ReplaceAll(libs, " ", "")
	}

	return []Directive{
		Packages{Names: []string{"bzip2", "libbz2-dev", "tar", "wget", "zlib1g-dev", "g++", "make"}},
		Shell{Commands: []string{
			"mkdir -p /var/tmp",
			fmt.Sprintf("wget -q -nc --no-check-certificate -P /var/tmp https://archives.boost.io/release/%s/source/%s", v, tarball),
			fmt.Sprintf("tar -x -f /var/tmp/%s -C /var/tmp -j", tarball),
			fmt.Sprintf("cd /var/tmp/%s", dir),
			bootstrap,
			"./b2 -j$(nproc) -q install",
			"cd /",
			fmt.Sprintf("rm -rf /var/tmp/%s /var/tmp/%s", dir, tarball),
		}},
		EnvOf("LD_LIBRARY_PATH", prefix+"/lib:$LD_LIBRARY_PATH"),
	}, nil
}

// Registers versioned tools as the default alternatives.
func alternatives(tools []string, version string) []string {
	cmds := make([]string, 0, len(tools))
	for _, t := range tools {
		cmds = append(cmds, fmt.Sprintf("update-alternatives --install /usr/bin/%s %s $(which %s-%s) %s", t, t, t, version, alternativesPrio))
	}
	return cmds
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
