package loader

import (
	"fmt"
	"path"
	"strings"
)

// Parses a copy shorthand of the form "src dest".
//
// The destination is resolved with [resolveDest].
func parseCopy(s, workdir string) (src, dest string, err error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("copy %q: expected \"src dest\"", s)
	}

	dest, err = resolveDest(fields[1], workdir)
	if err != nil {
		return "", "", fmt.Errorf("copy %q: %w", s, err)
	}
	return fields[0], dest, nil
}

// Resolves a relative copy destination against workdir, the most recent
// workdir set in the same file. Without a workdir a relative destination is
// an error. Destinations starting with a parameter reference are left for
// render-time validation.
func resolveDest(dest, workdir string) (string, error) {
	if dest == "" || path.IsAbs(dest) || strings.HasPrefix(dest, "{") {
		return dest, nil
	}
	if workdir == "" {
		return "", fmt.Errorf("relative destination %q requires a workdir", dest)
	}

	trailing := strings.HasSuffix(dest, "/")
	dest = path.Join(workdir, dest)
	if trailing {
		dest += "/"
	}
	return dest, nil
}
