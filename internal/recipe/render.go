package recipe

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-shellwords"
)

// Selects the build-description syntax produced by [Recipe.Render].
type Format string

const (
	FormatDocker      Format = "docker"
	FormatSingularity Format = "singularity"
)

// Returns all supported formats.
func Formats() []Format {
	return []Format{FormatDocker, FormatSingularity}
}

// Parses a format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == strings.ToLower(strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

const (
	indent       = "    "
	continuation = " && \\\n" + indent
	aptSources   = "/etc/apt/sources.list.d/cruxgen.list"
)

// Emits the syntax of one primitive directive.
//
// Toolchains are lowered before they reach a target.
type target interface {
	emit(index int, d Directive) (string, error)
}

func newTarget(f Format) (target, error) {
	switch f {
	case FormatDocker:
		return dockerTarget{}, nil
	case FormatSingularity:
		return &singularityTarget{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Writes Dockerfile instructions.
type dockerTarget struct{}

func (dockerTarget) emit(index int, d Directive) (string, error) {
	switch d := d.(type) {
	case BaseImage:
		return "FROM " + d.Image + "\n", nil
	case Packages:
		return "RUN " + strings.Join(packageCommands(d), continuation) + "\n", nil
	case Shell:
		return "RUN " + strings.Join(d.Commands, continuation) + "\n", nil
	case Env:
		lines := make([]string, len(d.Variables))
		for i, v := range d.Variables {
			lines[i] = v.Name + "=" + quoteWord(v.Value)
		}
		return "ENV " + strings.Join(lines, " \\\n"+indent) + "\n", nil
	case Copy:
		if strings.ContainsAny(d.Source+d.Dest, " \t") {
			return "COPY " + jsonArray(d.Source, d.Dest) + "\n", nil
		}
		return "COPY " + d.Source + " " + d.Dest + "\n", nil
	case Workdir:
		return "WORKDIR " + d.Path + "\n", nil
	case RunScript:
		argv, err := execForm(index, d.Commands)
		if err != nil {
			return "", err
		}
		return "ENTRYPOINT " + jsonArray(argv...) + "\n", nil
	}
	return "", malformed(index, d.Kind(), "cannot render %s directive", d.Kind())
}

// Writes an Apptainer/Singularity definition file.
//
// The definition header must come first and appear once, so the target
// tracks whether the base image has been seen.
type singularityTarget struct {
	seenBase bool
}

func (t *singularityTarget) emit(index int, d Directive) (string, error) {
	base, isBase := d.(BaseImage)
	switch {
	case isBase && t.seenBase:
		return "", malformed(index, KindBaseImage, "singularity definitions allow a single base image")
	case isBase:
		t.seenBase = true
		return "Bootstrap: docker\nFrom: " + base.Image + "\n" +
			section("post", ". /.singularity.d/env/10-docker*.sh"), nil
	case !t.seenBase:
		return "", malformed(index, d.Kind(), "singularity definitions must start with a base image")
	}

	switch d := d.(type) {
	case Packages:
		return section("post", strings.Join(packageCommands(d), continuation)), nil
	case Shell:
		return section("post", strings.Join(d.Commands, continuation)), nil
	case Env:
		lines := make([]string, len(d.Variables))
		for i, v := range d.Variables {
			lines[i] = "export " + v.Name + "=" + quoteWord(v.Value)
		}
		return section("environment", lines...) + section("post", lines...), nil
	case Copy:
		return section("files", quoteWord(d.Source)+" "+quoteWord(d.Dest)), nil
	case Workdir:
		return section("post", "mkdir -p "+d.Path, "cd "+d.Path), nil
	case RunScript:
		lines := make([]string, len(d.Commands))
		copy(lines, d.Commands)
		lines[len(lines)-1] = "exec " + lines[len(lines)-1] + ` "$@"`
		return section("runscript", lines...), nil
	}
	return "", malformed(index, d.Kind(), "cannot render %s directive", d.Kind())
}

// Formats a definition-file section with indented body lines.
func section(name string, lines ...string) string {
	var b strings.Builder
	b.WriteString("%" + name + "\n")
	for _, l := range lines {
		b.WriteString(indent + l + "\n")
	}
	return b.String()
}

// Returns the shell commands installing a package set.
func packageCommands(d Packages) []string {
	if d.manager() == ManagerYum {
		return yumCommands(d)
	}
	return aptCommands(d)
}

func aptCommands(d Packages) []string {
	var cmds []string
	if len(d.Keys) > 0 || len(d.Repositories) > 0 {
		cmds = append(cmds,
			"apt-get update -y",
			"DEBIAN_FRONTEND=noninteractive apt-get install -y --no-install-recommends ca-certificates gnupg software-properties-common wget",
		)
	}
	for _, key := range d.Keys {
		cmds = append(cmds, "wget -qO - "+key+" | apt-key add -")
	}
	for _, repo := range d.Repositories {
		if strings.HasPrefix(repo, "ppa:") {
			cmds = append(cmds, "apt-add-repository -y "+repo)
			continue
		}
		cmds = append(cmds, fmt.Sprintf(`echo "%s" >> %s`, repo, aptSources))
	}
	cmds = append(cmds,
		"apt-get update -y",
		"DEBIAN_FRONTEND=noninteractive apt-get install -y --no-install-recommends"+packageList(d.Names),
		"rm -rf /var/lib/apt/lists/*",
	)
	return cmds
}

func yumCommands(d Packages) []string {
	var cmds []string
	for _, key := range d.Keys {
		cmds = append(cmds, "rpm --import "+key)
	}
	if len(d.Repositories) > 0 {
		cmds = append(cmds, "yum install -y yum-utils")
	}
	for _, repo := range d.Repositories {
		cmds = append(cmds, "yum-config-manager --add-repo "+repo)
	}
	cmds = append(cmds,
		"yum install -y"+packageList(d.Names),
		"rm -rf /var/cache/yum/*",
	)
	return cmds
}

// Formats package names one per continuation line.
func packageList(names []string) string {
	var b strings.Builder
	for _, n := range names {
		b.WriteString(" \\\n" + indent + indent + n)
	}
	return b.String()
}

// Converts run-script commands into an exec-form argument vector.
//
// A single plain command is split with shell-word rules. Several commands,
// or one using operators, redirections or separators, run through /bin/sh
// joined with "&&".
func execForm(index int, commands []string) ([]string, error) {
	if len(commands) > 1 {
		return shellForm(strings.Join(commands, " && ")), nil
	}

	p := shellwords.NewParser()
	argv, err := p.Parse(commands[0])
	if err != nil {
		return nil, malformed(index, KindRunScript, "cannot split command %q: %v", commands[0], err)
	}
	if p.Position != -1 {
		return shellForm(commands[0]), nil
	}
	if len(argv) == 0 {
		return nil, malformed(index, KindRunScript, "command %q has no words", commands[0])
	}
	return argv, nil
}

func shellForm(script string) []string {
	return []string{"/bin/sh", "-c", script}
}

// Encodes strings as a JSON array without HTML escaping.
func jsonArray(items ...string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		var b strings.Builder
		enc := json.NewEncoder(&b)
		enc.SetEscapeHTML(false)
		enc.Encode(item)
		quoted[i] = strings.TrimSuffix(b.String(), "\n")
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Quotes an environment value or a path when the builder would otherwise
// split or misread it.
func quoteWord(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\"'\\") {
		return v
	}
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v) + `"`
}
