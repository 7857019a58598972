package recipe

import (
	"fmt"

	"github.com/containerd/platforms"
)

// Architecture names used by toolchain download URLs and SDK paths.
const (
	ArchX86_64  = "x86_64"
	ArchAarch64 = "aarch64"
)

// Returns the architecture parameter for an OCI platform specifier.
//
// The specifier is normalised first, so "amd64", "linux/amd64" and
// "linux/x86_64" all map to x86_64. An empty specifier means the host
// platform.
func ArchFromPlatform(specifier string) (string, error) {
	p := platforms.DefaultSpec()
	if specifier != "" {
		var err error
		if p, err = platforms.Parse(specifier); err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnsupportedArch, err)
		}
	}
	p = platforms.Normalize(p)

	switch p.Architecture {
	case "amd64":
		return ArchX86_64, nil
	case "arm64":
		return ArchAarch64, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedArch, platforms.Format(p))
}
